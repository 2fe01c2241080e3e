package models

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Channel string

const (
	ChannelAddress Channel = "address"
	ChannelNFC     Channel = "nfc"
	ChannelQR      Channel = "qr"
)

// Transaction amounts and fees are in the currency's smallest unit.
type Transaction struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Direction     Direction  `db:"direction" json:"direction"`
	Counterparty  string     `db:"counterparty" json:"counterparty"`
	MerchantID    string     `db:"merchant_id" json:"merchant_id,omitempty"`
	Amount        int64      `db:"amount" json:"amount"`
	Fee           int64      `db:"fee" json:"fee"`
	Currency      Currency   `db:"currency" json:"currency"`
	Status        Status     `db:"status" json:"status"`
	Channel       Channel    `db:"channel" json:"channel"`
	Note          string     `db:"note" json:"note,omitempty"`
	IntentID      string     `db:"intent_id" json:"intent_id,omitempty"`
	FailureReason string     `db:"failure_reason" json:"failure_reason,omitempty"`
	RetryOf       *uuid.UUID `db:"retry_of" json:"retry_of,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ConfirmedAt   *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	SettledAt     *time.Time `db:"settled_at" json:"settled_at,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// MaxTextLen bounds the counterparty, merchant id and intent id, which are
// stored as VARCHAR(255).
const MaxTextLen = 255

// Debit is what an outbound transaction takes from the balance.
func (t Transaction) Debit() int64 {
	if t.Direction != DirectionSent {
		return 0
	}
	return t.Amount + t.Fee
}

// RequiresConfirmation is true for outbound transfers only.
func (t Transaction) RequiresConfirmation() bool {
	return t.Direction == DirectionSent
}

// TransactionView is the presentation form used by the HTTP layer.
type TransactionView struct {
	Transaction
	AmountDisplay string `json:"amount_display"`
	FeeDisplay    string `json:"fee_display"`
}

func (t Transaction) View() TransactionView {
	return TransactionView{
		Transaction:   t,
		AmountDisplay: FormatAmount(t.Amount, t.Currency),
		FeeDisplay:    FormatAmount(t.Fee, t.Currency),
	}
}
