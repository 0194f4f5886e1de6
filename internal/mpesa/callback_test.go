package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 1500.00},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20191219102115},
          {"Name": "PhoneNumber", "Value": 254708374149}
        ]
      }
    }
  }
}`

const cancelledCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-2",
      "CheckoutRequestID": "ws_CO_191220191020363926",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user"
    }
  }
}`

func TestParseCallbackSuccess(t *testing.T) {
	payload, err := ParseCallback([]byte(successCallback))
	require.NoError(t, err)

	assert.Equal(t, "ws_CO_191220191020363925", payload.Body.StkCallback.CheckoutRequestID)
	assert.True(t, payload.Succeeded())
	assert.False(t, payload.Cancelled())
	assert.Equal(t, "NLJ7RT61SV", payload.Receipt())
}

func TestParseCallbackCancelled(t *testing.T) {
	payload, err := ParseCallback([]byte(cancelledCallback))
	require.NoError(t, err)

	assert.False(t, payload.Succeeded())
	assert.True(t, payload.Cancelled())
	assert.Empty(t, payload.Receipt(), "cancelled pushes carry no receipt")
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	_, err := ParseCallback([]byte("not json"))
	assert.Error(t, err)
}

func TestParseCallbackRequiresCheckoutID(t *testing.T) {
	_, err := ParseCallback([]byte(`{"Body":{"stkCallback":{"ResultCode":0}}}`))
	assert.ErrorContains(t, err, "CheckoutRequestID")
}
