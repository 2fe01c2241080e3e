package models

import "github.com/shopspring/decimal"

type ReceiveInfo struct {
	Currency  Currency `json:"currency"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	QRPayload string   `json:"qr_payload"`
}

type QuickAmount struct {
	Percent int    `json:"percent"`
	Amount  string `json:"amount"`
}

// Holding is one line of the portfolio. Price and Value are nil when the
// price oracle could not quote the currency.
type Holding struct {
	Currency Currency         `json:"currency"`
	Balance  string           `json:"balance"`
	Price    *decimal.Decimal `json:"price_usd"`
	Value    *decimal.Decimal `json:"value_usd"`
}

type Portfolio struct {
	Holdings []Holding       `json:"holdings"`
	TotalUSD decimal.Decimal `json:"total_usd"`
	// Complete is false when at least one currency is missing from the total.
	Complete bool `json:"complete"`
}

type SendInput struct {
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Currency  string `json:"currency" binding:"required"`
	Note      string `json:"note"`
}

// DepositInput simulates an inbound transfer from another wallet.
type DepositInput struct {
	From     string `json:"from" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Note     string `json:"note"`
}

// CaptureInput carries a tag or code read by the device. Encoding is empty
// for text payloads or "base64" for raw NDEF bytes.
type CaptureInput struct {
	Channel  string `json:"channel" binding:"required"`
	Payload  string `json:"payload" binding:"required"`
	Encoding string `json:"encoding"`
}

// SendSummary is the amount, estimated fee and total shown before sending.
type SendSummary struct {
	Currency Currency `json:"currency"`
	Amount   string   `json:"amount"`
	Fee      string   `json:"fee"`
	Total    string   `json:"total"`
}

type FailInput struct {
	Reason string `json:"reason"`
}
