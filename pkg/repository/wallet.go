package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"wallet_core/models"
)

const (
	upsertBalance = `
        INSERT INTO balances (currency, amount, reserved, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (currency) DO UPDATE
            SET amount     = EXCLUDED.amount,
                reserved   = EXCLUDED.reserved,
                updated_at = EXCLUDED.updated_at
    `

	// Rows that already reached a terminal status are never rewritten.
	upsertTransaction = `
        INSERT INTO transactions (id, direction, counterparty, merchant_id, amount, fee, currency, status, channel,
                                  note, intent_id, failure_reason, retry_of, created_at, confirmed_at, settled_at,
                                  updated_at)
        VALUES (:id, :direction, :counterparty, :merchant_id, :amount, :fee, :currency, :status, :channel,
                :note, :intent_id, :failure_reason, :retry_of, :created_at, :confirmed_at, :settled_at, :updated_at)
        ON CONFLICT (id) DO UPDATE
            SET status         = EXCLUDED.status,
                failure_reason = EXCLUDED.failure_reason,
                confirmed_at   = EXCLUDED.confirmed_at,
                settled_at     = EXCLUDED.settled_at,
                updated_at     = EXCLUDED.updated_at
            WHERE transactions.status = 'pending'
    `

	selectBalances     = `SELECT currency, amount, reserved, updated_at FROM balances ORDER BY currency`
	selectTransactions = `
        SELECT id, direction, counterparty, merchant_id, amount, fee, currency, status, channel, note, intent_id,
               failure_reason, retry_of, created_at, confirmed_at, settled_at, updated_at
        FROM transactions
        ORDER BY created_at
    `
)

type WalletPostgres struct {
	db *sqlx.DB
}

func NewWalletPostgres(db *sqlx.DB) *WalletPostgres {
	return &WalletPostgres{db: db}
}

// SaveState writes txs and balances in one database transaction, so a
// settled transaction is never stored without its debit.
func (r *WalletPostgres) SaveState(ctx context.Context, txs []models.Transaction, balances []models.Balance) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	for _, t := range txs {
		if _, err := tx.NamedExecContext(ctx, upsertTransaction, t); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "save transaction %s", t.ID)
		}
	}
	for _, b := range balances {
		if _, err := tx.ExecContext(ctx, upsertBalance, b.Currency, b.Amount, b.Reserved, b.UpdatedAt); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "save balance %s", b.Currency)
		}
	}
	return errors.Wrap(tx.Commit(), "commit state")
}

func (r *WalletPostgres) LoadBalances(ctx context.Context) ([]models.Balance, error) {
	var balances []models.Balance
	if err := r.db.SelectContext(ctx, &balances, selectBalances); err != nil {
		return nil, errors.Wrap(err, "load balances")
	}
	return balances, nil
}

func (r *WalletPostgres) LoadTransactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.SelectContext(ctx, &txs, selectTransactions); err != nil {
		return nil, errors.Wrap(err, "load transactions")
	}
	return txs, nil
}
