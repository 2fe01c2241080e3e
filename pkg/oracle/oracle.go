// Package oracle supplies unit prices for the wallet currencies. Prices are
// informational: they feed the portfolio view and never gate settlement.
package oracle

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"wallet_core/models"
)

var ErrPriceUnavailable = errors.New("price unavailable")

type PriceOracle interface {
	// Price returns the USD price of one whole unit of c.
	Price(ctx context.Context, c models.Currency) (decimal.Decimal, error)
}

// Static quotes a fixed price table, the prices the app shipped with.
type Static map[models.Currency]decimal.Decimal

func DefaultPrices() Static {
	return Static{
		models.BTC:  decimal.NewFromInt(45000),
		models.ETH:  decimal.NewFromInt(2800),
		models.USDT: decimal.NewFromInt(1),
	}
}

func (s Static) Price(_ context.Context, c models.Currency) (decimal.Decimal, error) {
	p, ok := s[c]
	if !ok {
		return decimal.Zero, errors.Wrapf(ErrPriceUnavailable, "no static price for %s", c)
	}
	return p, nil
}

// Fallback asks each oracle in turn and returns the first quote.
type Fallback []PriceOracle

func (f Fallback) Price(ctx context.Context, c models.Currency) (decimal.Decimal, error) {
	err := errors.Wrapf(ErrPriceUnavailable, "no oracle for %s", c)
	for _, o := range f {
		var p decimal.Decimal
		p, err = o.Price(ctx, c)
		if err == nil {
			return p, nil
		}
	}
	return decimal.Zero, err
}
