package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentIntent is a normalized, single-use payment request produced from an
// NFC tag or a QR code.
type PaymentIntent struct {
	ID             string          `json:"id"`
	Channel        Channel         `json:"channel"`
	CounterpartyID string          `json:"counterparty_id"`
	MerchantID     string          `json:"merchant_id,omitempty"`
	MerchantName   string          `json:"merchant_name,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       Currency        `json:"currency"`
	RawPayload     []byte          `json:"-"`
	CapturedAt     time.Time       `json:"captured_at"`
}

// Payee is the name shown in history, falling back to the raw identifier.
func (i PaymentIntent) Payee() string {
	if i.MerchantName != "" {
		return i.MerchantName
	}
	return i.CounterpartyID
}

// ConfirmationProof is the opaque artifact handed over by the UI after a PIN
// or biometric prompt.
type ConfirmationProof struct {
	Method    string `json:"method"`
	Secret    string `json:"secret"`
	Cancelled bool   `json:"cancelled"`
}
