package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"wallet_core/models"
	"wallet_core/pkg/capture"
	"wallet_core/pkg/ledger"
	"wallet_core/pkg/txstore"
)

type Wallet interface {
	Balances() []models.BalanceView
	Portfolio(ctx context.Context) models.Portfolio
	ReceiveInfo(c models.Currency) (models.ReceiveInfo, error)
	QuickAmounts(c models.Currency) ([]models.QuickAmount, error)
}

type Payments interface {
	Summary(in models.SendInput) (models.SendSummary, error)
	Send(ctx context.Context, in models.SendInput) (models.Transaction, error)
	Deposit(ctx context.Context, in models.DepositInput) (models.Transaction, error)
	Capture(ctx context.Context, in models.CaptureInput) (models.Transaction, error)
	Transactions(q txstore.Query) []models.Transaction
	Transaction(id uuid.UUID) (models.Transaction, error)
	Confirm(ctx context.Context, id uuid.UUID, proof models.ConfirmationProof) (models.Transaction, error)
	Settle(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (models.Transaction, error)
	Retry(ctx context.Context, id uuid.UUID) (models.Transaction, error)
}

type Service struct {
	Wallet
	Payments
}

// Account is the single wallet owner: one balance per supported currency
// and one history.
type Account struct {
	Ledger *ledger.Ledger
	Store  *txstore.Store
}

func NewAccount() *Account {
	return &Account{
		Ledger: ledger.New(models.SupportedCurrencies()...),
		Store:  txstore.New(),
	}
}

// Seed credits opening balances to an account that has neither funds nor
// history. It reports whether anything was credited.
func (a *Account) Seed(amounts map[models.Currency]int64) (bool, error) {
	if a.Store.Len() > 0 {
		return false, nil
	}
	for _, b := range a.Ledger.Snapshot() {
		if b.Amount > 0 {
			return false, nil
		}
	}

	seeded := false
	for c, amount := range amounts {
		if amount <= 0 {
			continue
		}
		if err := a.Ledger.Credit(c, amount); err != nil {
			return seeded, errors.Wrapf(err, "seed %s", c)
		}
		seeded = true
		logrus.WithFields(logrus.Fields{"currency": c, "amount": amount}).Info("account: opening balance credited")
	}
	return seeded, nil
}

func NewService(engine *Engine, wallet *WalletService) *Service {
	return &Service{
		Wallet:   wallet,
		Payments: NewPaymentService(engine, capture.NewAdapter()),
	}
}
