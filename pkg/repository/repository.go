package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"wallet_core/models"
)

type Wallet interface {
	SaveState(ctx context.Context, txs []models.Transaction, balances []models.Balance) error
	LoadBalances(ctx context.Context) ([]models.Balance, error)
	LoadTransactions(ctx context.Context) ([]models.Transaction, error)
}

type Repository struct {
	Wallet
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Wallet: NewWalletPostgres(db),
	}
}
