package service

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"wallet_core/models"
)

// BalanceReader is the read side of the ledger the validator needs.
type BalanceReader interface {
	Supports(c models.Currency) bool
	Available(c models.Currency) int64
}

// TransferRequest is a proposed transfer before validation. Amount is the
// user-entered decimal value.
type TransferRequest struct {
	Direction    models.Direction
	Counterparty string
	MerchantID   string
	Amount       decimal.Decimal
	Currency     models.Currency
	Channel      models.Channel
	Note         string
	IntentID     string
}

// Quote is a validated request priced in smallest units.
type Quote struct {
	Amount   int64
	Fee      int64
	Currency models.Currency
}

func (q Quote) Total() int64 {
	return q.Amount + q.Fee
}

type Validator struct {
	balances BalanceReader
	fees     FeeSchedule
}

func NewValidator(balances BalanceReader, fees FeeSchedule) *Validator {
	return &Validator{balances: balances, fees: fees}
}

// Validate applies the transfer rules in order and returns the first
// failure. It only reads balances.
func (v *Validator) Validate(req TransferRequest) (Quote, error) {
	if strings.TrimSpace(req.Counterparty) == "" {
		return Quote{}, errors.WithStack(models.ErrEmptyRecipient)
	}
	if len(strings.TrimSpace(req.Counterparty)) > models.MaxTextLen || len(req.MerchantID) > models.MaxTextLen {
		return Quote{}, errors.Wrapf(models.ErrRecipientTooLong, "at most %d bytes", models.MaxTextLen)
	}

	if !req.Amount.IsPositive() {
		return Quote{}, errors.Wrapf(models.ErrNonPositiveAmount, "amount %s", req.Amount.String())
	}
	var (
		amount int64
		err    error
	)
	_, known := models.LookupCurrency(req.Currency)
	if known {
		amount, err = models.ToAmount(req.Amount, req.Currency)
		if err != nil {
			return Quote{}, errors.Wrapf(models.ErrNonPositiveAmount, "%v", err)
		}
	}

	if !known || !v.balances.Supports(req.Currency) {
		return Quote{}, errors.Wrapf(models.ErrCurrencyMismatch, "currency %q is not held by this wallet", req.Currency)
	}

	q := Quote{Amount: amount, Currency: req.Currency}
	if req.Direction == models.DirectionReceived {
		return q, nil
	}

	fee := v.fees.Estimate(req.Currency)
	if fee.Currency != req.Currency {
		return Quote{}, errors.Wrapf(models.ErrCurrencyMismatch, "fee in %s for a %s transfer", fee.Currency, req.Currency)
	}
	q.Fee = fee.Amount
	if q.Fee < 0 || q.Amount > math.MaxInt64-q.Fee {
		return Quote{}, errors.Wrapf(models.ErrNonPositiveAmount, "amount %s plus fee overflows", req.Amount.String())
	}

	available := v.balances.Available(req.Currency)
	if q.Total() > available {
		return Quote{}, errors.Wrapf(models.ErrInsufficientFunds, "need %s %s, available %s",
			models.FormatAmount(q.Total(), q.Currency), q.Currency, models.FormatAmount(available, q.Currency))
	}
	return q, nil
}
