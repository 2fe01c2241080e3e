// Package capture turns raw NFC tag and QR code payloads into payment
// intents. It checks payload shape only; amount and balance rules belong to
// the transaction validator.
package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_core/models"
)

// Event is what a capture driver delivers: the channel it read from and the
// raw bytes of the tag or the decoded QR text.
type Event struct {
	Channel    models.Channel
	Payload    []byte
	ReceivedAt time.Time
}

type Adapter struct {
	now func() time.Time
}

func NewAdapter() *Adapter {
	return &Adapter{now: time.Now}
}

// Normalize validates the payload shape for the event's channel and returns
// the intent.
func (a *Adapter) Normalize(ev Event) (models.PaymentIntent, error) {
	var (
		p   payload
		err error
	)
	switch ev.Channel {
	case models.ChannelNFC:
		p, err = parseNFC(ev.Payload)
	case models.ChannelQR:
		p, err = parseQR(ev.Payload)
	default:
		return models.PaymentIntent{}, errors.Wrapf(models.ErrUnsupportedChannel, "channel %q", ev.Channel)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"channel": ev.Channel, "error": err}).Warn("capture: rejected payload")
		return models.PaymentIntent{}, err
	}

	capturedAt := ev.ReceivedAt
	if capturedAt.IsZero() {
		capturedAt = a.now()
	}

	raw := make([]byte, len(ev.Payload))
	copy(raw, ev.Payload)

	id := intentID(ev.Channel, p.Reference, raw)
	if tooLong(id, p.Counterparty, p.MerchantID, p.MerchantName) {
		err := errors.Wrapf(models.ErrMalformedPayload, "field longer than %d bytes", models.MaxTextLen)
		logrus.WithFields(logrus.Fields{"channel": ev.Channel, "error": err}).Warn("capture: rejected payload")
		return models.PaymentIntent{}, err
	}

	return models.PaymentIntent{
		ID:             id,
		Channel:        ev.Channel,
		CounterpartyID: strings.TrimSpace(p.Counterparty),
		MerchantID:     strings.TrimSpace(p.MerchantID),
		MerchantName:   strings.TrimSpace(p.MerchantName),
		Amount:         p.Amount,
		Currency:       models.ParseCurrency(p.Currency),
		RawPayload:     raw,
		CapturedAt:     capturedAt,
	}, nil
}

type payload struct {
	Counterparty string
	MerchantID   string
	MerchantName string
	Amount       decimal.Decimal
	Currency     string
	Reference    string
}

// jsonPayload is the merchant terminal format, shared by NFC tags and JSON
// QR codes.
type jsonPayload struct {
	MerchantID    string              `json:"merchantId"`
	MerchantName  string              `json:"merchantName"`
	Amount        decimal.NullDecimal `json:"amount"`
	Currency      string              `json:"currency"`
	TransactionID string              `json:"transactionId"`
}

func parseJSON(data []byte) (payload, error) {
	var jp jsonPayload
	if err := json.Unmarshal(data, &jp); err != nil {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, err.Error())
	}
	if !jp.Amount.Valid {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, "amount is missing")
	}
	if strings.TrimSpace(jp.Currency) == "" {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, "currency is missing")
	}
	counterparty := jp.MerchantID
	if counterparty == "" {
		counterparty = jp.MerchantName
	}
	return payload{
		Counterparty: counterparty,
		MerchantID:   jp.MerchantID,
		MerchantName: jp.MerchantName,
		Amount:       jp.Amount.Decimal,
		Currency:     jp.Currency,
		Reference:    jp.TransactionID,
	}, nil
}

// intentID prefers the reference printed by the merchant terminal so that a
// re-tap of the same tag maps to the same intent; otherwise the payload hash
// is used.
func intentID(ch models.Channel, ref string, raw []byte) string {
	ref = strings.TrimSpace(ref)
	if ref != "" {
		return string(ch) + ":" + ref
	}
	sum := sha256.Sum256(raw)
	return string(ch) + ":" + hex.EncodeToString(sum[:])
}

func tooLong(fields ...string) bool {
	for _, f := range fields {
		if len(strings.TrimSpace(f)) > models.MaxTextLen {
			return true
		}
	}
	return false
}
