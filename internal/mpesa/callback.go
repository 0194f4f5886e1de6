package mpesa

import (
	"encoding/json"
	"fmt"
)

// CallbackPayload is the envelope Daraja posts to the callback URL after an
// STK push settles.
type CallbackPayload struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback decodes the raw callback body.
func ParseCallback(raw []byte) (*CallbackPayload, error) {
	var payload CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("mpesa callback: decode: %w", err)
	}
	if payload.Body.StkCallback.CheckoutRequestID == "" {
		return nil, fmt.Errorf("mpesa callback: missing CheckoutRequestID")
	}
	return &payload, nil
}

// Succeeded reports whether the payment went through. Daraja uses result
// code 0 for success and 1032 for a user cancellation.
func (p *CallbackPayload) Succeeded() bool {
	return p.Body.StkCallback.ResultCode == 0
}

// Cancelled reports whether the customer dismissed the prompt.
func (p *CallbackPayload) Cancelled() bool {
	return p.Body.StkCallback.ResultCode == 1032
}

// Receipt extracts the M-Pesa receipt number from the callback metadata.
func (p *CallbackPayload) Receipt() string {
	for _, item := range p.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}
