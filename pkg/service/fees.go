package service

import (
	"strings"

	"github.com/pkg/errors"

	"wallet_core/models"
)

// Fee is the estimated network fee charged on an outbound transfer.
type Fee struct {
	Amount   int64
	Currency models.Currency
}

// FeeSchedule maps the transfer currency to its estimated fee. A currency
// without an entry is sent without a fee.
type FeeSchedule map[models.Currency]Fee

// DefaultFees is 0.0001 BTC, 0.002 ETH and 0.50 USDT.
func DefaultFees() FeeSchedule {
	return FeeSchedule{
		models.BTC:  {Amount: 10_000, Currency: models.BTC},
		models.ETH:  {Amount: 2_000_000, Currency: models.ETH},
		models.USDT: {Amount: 50, Currency: models.USDT},
	}
}

// ParseFeeSchedule reads config entries of the form "BTC: 0.0001 BTC". The
// fee currency may be omitted, in which case it is the transfer currency.
func ParseFeeSchedule(raw map[string]string) (FeeSchedule, error) {
	fees := make(FeeSchedule, len(raw))
	for key, value := range raw {
		c := models.ParseCurrency(key)
		fields := strings.Fields(value)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, errors.Errorf("fee for %s: want \"<amount> [currency]\", got %q", c, value)
		}
		feeCurrency := c
		if len(fields) == 2 {
			feeCurrency = models.ParseCurrency(fields[1])
		}
		amount, err := models.ParseAmount(fields[0], feeCurrency)
		if err != nil {
			return nil, errors.Wrapf(err, "fee for %s", c)
		}
		if amount < 0 {
			return nil, errors.Errorf("fee for %s is negative", c)
		}
		fees[c] = Fee{Amount: amount, Currency: feeCurrency}
	}
	return fees, nil
}

// Estimate returns the fee for a transfer in c.
func (s FeeSchedule) Estimate(c models.Currency) Fee {
	if fee, ok := s[c]; ok {
		return fee
	}
	return Fee{Currency: c}
}
