package capture

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"wallet_core/models"
)

const qrScheme = "pay"

// parseQR reads "pay:<counterparty>?amount=15.50&currency=USDT&merchant=…&ref=…"
// or the JSON merchant format.
func parseQR(data []byte) (payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, "empty code")
	}
	if data[0] == '{' {
		return parseJSON(data)
	}

	u, err := url.Parse(string(data))
	if err != nil {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, err.Error())
	}
	if !strings.EqualFold(u.Scheme, qrScheme) {
		return payload{}, errors.Wrapf(models.ErrMalformedPayload, "unknown scheme %q", u.Scheme)
	}

	counterparty := u.Opaque
	if counterparty == "" {
		// pay://<counterparty>?…
		counterparty = u.Host + strings.TrimPrefix(u.Path, "/")
	}
	counterparty, err = url.PathUnescape(counterparty)
	if err != nil {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, err.Error())
	}

	q := u.Query()
	rawAmount := q.Get("amount")
	if rawAmount == "" {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, "amount is missing")
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return payload{}, errors.Wrapf(models.ErrMalformedPayload, "amount %q", rawAmount)
	}
	currency := q.Get("currency")
	if currency == "" {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, "currency is missing")
	}

	return payload{
		Counterparty: counterparty,
		MerchantID:   q.Get("merchant_id"),
		MerchantName: q.Get("merchant"),
		Amount:       amount,
		Currency:     currency,
		Reference:    q.Get("ref"),
	}, nil
}

// EncodeQR builds the code a payer scans to send funds to counterparty. A
// zero amount is omitted.
func EncodeQR(counterparty string, c models.Currency, amount decimal.Decimal, ref string) string {
	q := url.Values{}
	q.Set("currency", string(c))
	if !amount.IsZero() {
		q.Set("amount", amount.String())
	}
	if ref != "" {
		q.Set("ref", ref)
	}
	return qrScheme + ":" + url.PathEscape(counterparty) + "?" + q.Encode()
}
