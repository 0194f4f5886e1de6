package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbackend/internal/config"
)

type memTokenCache struct {
	token  string
	writes int
}

func (c *memTokenCache) CacheMpesaToken(ctx context.Context, token string, ttl time.Duration) error {
	c.token = token
	c.writes++
	return nil
}

func (c *memTokenCache) MpesaToken(ctx context.Context) (string, error) {
	return c.token, nil
}

func testClient(baseURL string, cache TokenCache) *Client {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewClient(config.MpesaConfig{
		BaseURL:        baseURL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://shop.example.com/api/v1/payments/mpesa/callback",
	}, cache, log)
}

func TestRefreshTokenSendsBasicAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
	}))
	defer srv.Close()

	cache := &memTokenCache{}
	client := testClient(srv.URL, cache)

	token, err := client.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
	assert.Equal(t, want, gotAuth)
	assert.Equal(t, "tok-1", cache.token, "fresh token is cached")
}

func TestAccessTokenPrefersCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
	}))
	defer srv.Close()

	cache := &memTokenCache{token: "cached"}
	client := testClient(srv.URL, cache)

	token, err := client.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Zero(t, calls, "no network call when the cache holds a token")
}

func TestSTKPushRequest(t *testing.T) {
	var pushBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &pushBody))
			json.NewEncoder(w).Encode(STKPushResponse{
				MerchantRequestID:   "29115-34620561-1",
				CheckoutRequestID:   "ws_CO_1",
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := testClient(srv.URL, &memTokenCache{})

	// 15,000.50 shillings rounds up to 15001 whole shillings.
	resp, err := client.STKPush(context.Background(), "254712345678", 15_000_50, "ORD-20250817-AAAAAA", "SoundWave order")
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_1", resp.CheckoutRequestID)

	assert.Equal(t, "15001", pushBody["Amount"])
	assert.Equal(t, "254712345678", pushBody["PhoneNumber"])
	assert.Equal(t, "174379", pushBody["BusinessShortCode"])
	assert.Equal(t, "CustomerPayBillOnline", pushBody["TransactionType"])
	assert.Equal(t, "ORD-20250817-AAAAAA", pushBody["AccountReference"])

	// Password is base64(shortcode + passkey + timestamp).
	password, ok := pushBody["Password"].(string)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(password)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "174379passkey")
}

func TestSTKPushRejectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
			return
		}
		json.NewEncoder(w).Encode(STKPushResponse{
			ResponseCode:        "1",
			ResponseDescription: "Unable to lock subscriber",
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL, &memTokenCache{})

	_, err := client.STKPush(context.Background(), "254712345678", 1_000_00, "ORD-1", "order")
	assert.ErrorContains(t, err, "stk push rejected")
}

func TestQueryStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "ws_CO_42", body["CheckoutRequestID"])
		json.NewEncoder(w).Encode(StatusResponse{
			ResponseCode:      "0",
			CheckoutRequestID: "ws_CO_42",
			ResultCode:        "0",
			ResultDesc:        "The service request is processed successfully.",
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL, &memTokenCache{})

	status, err := client.QueryStatus(context.Background(), "ws_CO_42")
	require.NoError(t, err)
	assert.Equal(t, "0", status.ResultCode)
}

func TestRefreshTokenServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := testClient(srv.URL, nil)

	_, err := client.RefreshToken(context.Background())
	assert.ErrorContains(t, err, "status 401")
}
