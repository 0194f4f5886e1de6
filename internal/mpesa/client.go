package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"shopbackend/internal/config"
)

// TokenTTL is how long a fetched Daraja access token is cached. Daraja
// tokens live for an hour; caching for 50 minutes leaves headroom.
const TokenTTL = 50 * time.Minute

// TokenCache stores the Daraja access token between calls, normally backed
// by Redis.
type TokenCache interface {
	CacheMpesaToken(ctx context.Context, token string, ttl time.Duration) error
	MpesaToken(ctx context.Context) (string, error)
}

// Client talks to the Daraja API: OAuth token, STK push, and transaction
// status queries. BaseURL is configurable so tests can point it at a local
// httptest server.
type Client struct {
	cfg   config.MpesaConfig
	http  *http.Client
	cache TokenCache
	log   *logrus.Logger
}

func NewClient(cfg config.MpesaConfig, cache TokenCache, log *logrus.Logger) *Client {
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: 30 * time.Second},
		cache: cache,
		log:   log,
	}
}

// AccessToken returns a valid API token, preferring the cached one.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c.cache != nil {
		token, err := c.cache.MpesaToken(ctx)
		if err != nil {
			c.log.WithError(err).Warn("mpesa token cache read failed")
		} else if token != "" {
			return token, nil
		}
	}
	return c.RefreshToken(ctx)
}

// RefreshToken fetches a fresh token from Daraja and caches it.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa oauth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mpesa oauth: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("mpesa oauth: decode: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("mpesa oauth: empty token")
	}

	if c.cache != nil {
		if err := c.cache.CacheMpesaToken(ctx, payload.AccessToken, TokenTTL); err != nil {
			c.log.WithError(err).Warn("mpesa token cache write failed")
		}
	}
	return payload.AccessToken, nil
}

// STKPushResponse is Daraja's synchronous answer to a push request.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKPush initiates a payment prompt on the customer's phone. Amount is in
// cents and converted to whole shillings for the API.
func (c *Client) STKPush(ctx context.Context, phone string, amountCents int64, reference, description string) (*STKPushResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))

	body := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            strconv.FormatInt((amountCents+99)/100, 10),
		"PartyA":            phone,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  reference,
		"TransactionDesc":   description,
	}

	var out STKPushResponse
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", token, body, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "0" {
		return &out, fmt.Errorf("stk push rejected: %s (%s)", out.ResponseDescription, out.ResponseCode)
	}
	return &out, nil
}

// StatusResponse is Daraja's answer to a transaction status query.
type StatusResponse struct {
	ResponseCode      string `json:"ResponseCode"`
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        string `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
}

// QueryStatus asks Daraja for the final state of an STK push.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))

	body := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var out StatusResponse
	if err := c.post(ctx, "/mpesa/stkpushquery/v1/query", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path, token string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mpesa request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mpesa %s: status %d: %s", path, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("mpesa %s: decode: %w", path, err)
	}
	return nil
}
