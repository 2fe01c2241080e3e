package capture

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_core/models"
)

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const coffeeTag = `{"merchantId":"merchant_123","merchantName":"Coffee Shop","amount":"15.50","currency":"USDT","transactionId":"tx_1718000000000"}`

func ndefRecord(lang, text string) []byte {
	rec := []byte{byte(len(lang))}
	rec = append(rec, lang...)
	return append(rec, text...)
}

func TestNormalizeNFC(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	a := NewAdapter()

	for name, raw := range map[string][]byte{
		"bare json":        []byte(coffeeTag),
		"ndef text record": ndefRecord("en", coffeeTag),
	} {
		t.Run(name, func(t *testing.T) {
			intent, err := a.Normalize(Event{Channel: models.ChannelNFC, Payload: raw, ReceivedAt: at})
			require.NoError(t, err)

			assert.Equal(t, "nfc:tx_1718000000000", intent.ID)
			assert.Equal(t, models.ChannelNFC, intent.Channel)
			assert.Equal(t, "merchant_123", intent.CounterpartyID)
			assert.Equal(t, "Coffee Shop", intent.Payee())
			assert.True(t, decimal.RequireFromString("15.5").Equal(intent.Amount))
			assert.Equal(t, models.USDT, intent.Currency)
			assert.Equal(t, raw, intent.RawPayload)
			assert.Equal(t, at, intent.CapturedAt)
		})
	}
}

func TestNormalizeNumericAmount(t *testing.T) {
	intent, err := NewAdapter().Normalize(Event{
		Channel: models.ChannelNFC,
		Payload: []byte(`{"merchantName":"Kiosk","amount":0.0012,"currency":"btc"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", intent.CounterpartyID)
	assert.Equal(t, models.BTC, intent.Currency)
	assert.Equal(t, "0.0012", intent.Amount.String())
	assert.Contains(t, intent.ID, "nfc:")
	assert.Len(t, intent.ID, len("nfc:")+64)
	assert.False(t, intent.CapturedAt.IsZero())
}

func TestNormalizeQR(t *testing.T) {
	intent, err := NewAdapter().Normalize(Event{
		Channel: models.ChannelQR,
		Payload: []byte("pay:TJCnKsPa7y5okkXvQAidZBzqx3QyQ6sxMW?amount=150.00&currency=usdt&merchant=Restaurant&ref=ord-77"),
	})
	require.NoError(t, err)

	assert.Equal(t, "qr:ord-77", intent.ID)
	assert.Equal(t, "TJCnKsPa7y5okkXvQAidZBzqx3QyQ6sxMW", intent.CounterpartyID)
	assert.Equal(t, "Restaurant", intent.Payee())
	assert.Equal(t, "150", intent.Amount.String())
	assert.Equal(t, models.USDT, intent.Currency)
}

func TestEncodeQRRoundTrip(t *testing.T) {
	code := EncodeQR("John Doe", models.ETH, decimal.RequireFromString("0.025"), "inv-1")

	intent, err := NewAdapter().Normalize(Event{Channel: models.ChannelQR, Payload: []byte(code)})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", intent.CounterpartyID)
	assert.Equal(t, models.ETH, intent.Currency)
	assert.Equal(t, "0.025", intent.Amount.String())
	assert.Equal(t, "qr:inv-1", intent.ID)
}

func TestSamePayloadSameIntent(t *testing.T) {
	a := NewAdapter()
	raw := []byte(`pay:shop?amount=1&currency=USDT`)
	first, err := a.Normalize(Event{Channel: models.ChannelQR, Payload: raw})
	require.NoError(t, err)
	second, err := a.Normalize(Event{Channel: models.ChannelQR, Payload: raw})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := a.Normalize(Event{Channel: models.ChannelQR, Payload: []byte(`pay:shop?amount=2&currency=USDT`)})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestNormalizeErrors(t *testing.T) {
	cases := []struct {
		name    string
		channel models.Channel
		payload string
		want    error
	}{
		{"unknown channel", "bluetooth", coffeeTag, models.ErrUnsupportedChannel},
		{"address channel is not a capture channel", models.ChannelAddress, coffeeTag, models.ErrUnsupportedChannel},
		{"empty nfc", models.ChannelNFC, "  ", models.ErrMalformedPayload},
		{"broken json", models.ChannelNFC, `{"amount":`, models.ErrMalformedPayload},
		{"missing amount", models.ChannelNFC, `{"merchantId":"m","currency":"USDT"}`, models.ErrMalformedPayload},
		{"missing currency", models.ChannelNFC, `{"merchantId":"m","amount":"1"}`, models.ErrMalformedPayload},
		{"bad amount", models.ChannelNFC, `{"merchantId":"m","amount":"ten","currency":"USDT"}`, models.ErrMalformedPayload},
		{"utf16 ndef", models.ChannelNFC, "\x82en{}", models.ErrMalformedPayload},
		{"truncated ndef", models.ChannelNFC, "\x05en", models.ErrMalformedPayload},
		{"qr wrong scheme", models.ChannelQR, "https://example.com/?amount=1&currency=USDT", models.ErrMalformedPayload},
		{"qr no amount", models.ChannelQR, "pay:shop?currency=USDT", models.ErrMalformedPayload},
		{"qr bad amount", models.ChannelQR, "pay:shop?amount=1,5&currency=USDT", models.ErrMalformedPayload},
		{"qr no currency", models.ChannelQR, "pay:shop?amount=1", models.ErrMalformedPayload},
		{"trailing bytes after json", models.ChannelNFC, coffeeTag + "garbage", models.ErrMalformedPayload},
		{"second json value", models.ChannelQR, coffeeTag + coffeeTag, models.ErrMalformedPayload},
		{"long transaction id", models.ChannelNFC, `{"merchantId":"m","amount":"1","currency":"USDT","transactionId":"` + strings.Repeat("x", 252) + `"}`, models.ErrMalformedPayload},
		{"long merchant id", models.ChannelNFC, `{"merchantId":"` + strings.Repeat("m", 256) + `","amount":"1","currency":"USDT"}`, models.ErrMalformedPayload},
		{"long qr payee", models.ChannelQR, "pay:" + strings.Repeat("a", 256) + "?amount=1&currency=USDT", models.ErrMalformedPayload},
		{"long qr ref", models.ChannelQR, "pay:shop?amount=1&currency=USDT&ref=" + strings.Repeat("r", 253), models.ErrMalformedPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAdapter().Normalize(Event{Channel: tc.channel, Payload: []byte(tc.payload)})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNormalizeLongestReference(t *testing.T) {
	ref := strings.Repeat("x", models.MaxTextLen-len("nfc:"))
	intent, err := NewAdapter().Normalize(Event{
		Channel: models.ChannelNFC,
		Payload: []byte(`{"merchantId":"m","amount":"1","currency":"USDT","transactionId":"` + ref + `"}`),
	})
	require.NoError(t, err)
	assert.Len(t, intent.ID, models.MaxTextLen)
}
