package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_core/models"
	"wallet_core/pkg/capture"
	"wallet_core/pkg/ledger"
	"wallet_core/pkg/oracle"
)

var quickPercents = []int{25, 50, 75, 100}

// AddressBook returns the receive address for a currency.
type AddressBook interface {
	Address(c models.Currency) (string, error)
}

type WalletService struct {
	ledger    *ledger.Ledger
	oracle    oracle.PriceOracle
	addresses AddressBook
	fees      FeeSchedule
}

func NewWalletService(l *ledger.Ledger, o oracle.PriceOracle, addresses AddressBook, fees FeeSchedule) *WalletService {
	return &WalletService{
		ledger:    l,
		oracle:    o,
		addresses: addresses,
		fees:      fees,
	}
}

func (s *WalletService) Balances() []models.BalanceView {
	snapshot := s.ledger.Snapshot()
	out := make([]models.BalanceView, 0, len(snapshot))
	for _, b := range snapshot {
		out = append(out, b.View())
	}
	return out
}

// Portfolio values every balance in USD. A currency the oracle cannot price
// is listed without a value and left out of the total.
func (s *WalletService) Portfolio(ctx context.Context) models.Portfolio {
	p := models.Portfolio{
		Holdings: make([]models.Holding, 0),
		TotalUSD: decimal.Zero,
		Complete: true,
	}
	for _, b := range s.ledger.Snapshot() {
		h := models.Holding{
			Currency: b.Currency,
			Balance:  models.FormatAmount(b.Amount, b.Currency),
		}

		price, err := s.oracle.Price(ctx, b.Currency)
		if err != nil {
			logrus.WithFields(logrus.Fields{"currency": b.Currency, "error": err}).Warn("portfolio: price unavailable")
			p.Complete = false
			p.Holdings = append(p.Holdings, h)
			continue
		}

		value := models.AmountDecimal(b.Amount, b.Currency).Mul(price).Round(2)
		h.Price = &price
		h.Value = &value
		p.TotalUSD = p.TotalUSD.Add(value)
		p.Holdings = append(p.Holdings, h)
	}
	return p
}

// ReceiveInfo returns the receive address of c and a QR payload other
// wallets can scan to pay it.
func (s *WalletService) ReceiveInfo(c models.Currency) (models.ReceiveInfo, error) {
	info, ok := models.LookupCurrency(c)
	if !ok || !s.ledger.Supports(c) {
		return models.ReceiveInfo{}, errors.Wrapf(models.ErrCurrencyMismatch, "currency %q is not held by this wallet", c)
	}
	addr, err := s.addresses.Address(c)
	if err != nil {
		return models.ReceiveInfo{}, err
	}
	return models.ReceiveInfo{
		Currency:  c,
		Name:      info.Name,
		Address:   addr,
		QRPayload: capture.EncodeQR(addr, c, decimal.Zero, ""),
	}, nil
}

// QuickAmounts splits the balance that can be sent after the fee into the
// 25/50/75/100% shortcuts of the send screen.
func (s *WalletService) QuickAmounts(c models.Currency) ([]models.QuickAmount, error) {
	if _, ok := models.LookupCurrency(c); !ok || !s.ledger.Supports(c) {
		return nil, errors.Wrapf(models.ErrCurrencyMismatch, "currency %q is not held by this wallet", c)
	}
	spendable := s.ledger.Available(c)
	if fee := s.fees.Estimate(c); fee.Currency == c {
		spendable -= fee.Amount
	}
	if spendable < 0 {
		spendable = 0
	}

	out := make([]models.QuickAmount, 0, len(quickPercents))
	for _, pct := range quickPercents {
		amount := spendable / 100 * int64(pct)
		amount += spendable % 100 * int64(pct) / 100
		out = append(out, models.QuickAmount{
			Percent: pct,
			Amount:  models.FormatAmount(amount, c),
		})
	}
	return out, nil
}
