// Package ledger keeps the per-currency balances of the wallet account.
//
// Amounts are integers in the currency's smallest unit. Every balance has its
// own mutex, so reserve, commit and release on one currency are mutually
// exclusive while different currencies never contend.
package ledger

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"wallet_core/models"
)

var (
	ErrUnknownReservation = errors.New("ledger: unknown or already settled reservation")
	ErrBalanceOverflow    = errors.New("ledger: credit would overflow balance")
	ErrNegativeBalance    = errors.New("ledger: commit would make balance negative")
)

// Reservation is a hold on available funds returned by Reserve. It is
// consumed by exactly one Commit or Release.
type Reservation struct {
	ID       uint64          `json:"id"`
	Currency models.Currency `json:"currency"`
	Amount   int64           `json:"amount"`
}

type balance struct {
	mu        sync.Mutex
	amount    int64
	reserved  int64
	holds     map[uint64]int64
	updatedAt time.Time
}

type Ledger struct {
	balances map[models.Currency]*balance
	seq      atomic.Uint64
	now      func() time.Time
}

// New creates a ledger with a zero balance for each currency. The currency
// set is fixed for the lifetime of the ledger.
func New(currencies ...models.Currency) *Ledger {
	l := &Ledger{
		balances: make(map[models.Currency]*balance, len(currencies)),
		now:      time.Now,
	}
	for _, c := range currencies {
		l.balances[c] = &balance{holds: make(map[uint64]int64)}
	}
	return l
}

func (l *Ledger) Supports(c models.Currency) bool {
	_, ok := l.balances[c]
	return ok
}

func (l *Ledger) Currencies() []models.Currency {
	out := make([]models.Currency, 0, len(l.balances))
	for c := range l.balances {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Balance returns the settled balance, reservations included.
func (l *Ledger) Balance(c models.Currency) int64 {
	b, ok := l.balances[c]
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amount
}

// Available returns the balance that is not held by a reservation.
func (l *Ledger) Available(c models.Currency) int64 {
	b, ok := l.balances[c]
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amount - b.reserved
}

func (l *Ledger) Reserve(c models.Currency, amount int64) (Reservation, error) {
	b, err := l.lookup(c, amount)
	if err != nil {
		return Reservation{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if amount > b.amount-b.reserved {
		return Reservation{}, errors.Wrapf(models.ErrInsufficientFunds,
			"reserve %s %s, available %s", models.FormatAmount(amount, c), c, models.FormatAmount(b.amount-b.reserved, c))
	}

	r := Reservation{ID: l.seq.Add(1), Currency: c, Amount: amount}
	b.holds[r.ID] = amount
	b.reserved += amount
	logrus.WithFields(logrus.Fields{"currency": c, "amount": amount, "reservation": r.ID}).Debug("ledger: funds reserved")
	return r, nil
}

// Commit permanently deducts a reserved amount. A reservation can be
// committed once; the second call fails without touching the balance.
func (l *Ledger) Commit(r Reservation) error {
	b, ok := l.balances[r.Currency]
	if !ok {
		return errors.Wrapf(models.ErrCurrencyMismatch, "unsupported currency %q", r.Currency)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	held, ok := b.holds[r.ID]
	if !ok || held != r.Amount {
		return errors.Wrapf(ErrUnknownReservation, "commit reservation %d", r.ID)
	}
	if b.amount < held {
		return errors.Wrapf(ErrNegativeBalance, "commit reservation %d", r.ID)
	}

	delete(b.holds, r.ID)
	b.reserved -= held
	b.amount -= held
	b.updatedAt = l.now()
	return nil
}

// Release cancels a reservation and returns the funds to the available
// balance.
func (l *Ledger) Release(r Reservation) error {
	b, ok := l.balances[r.Currency]
	if !ok {
		return errors.Wrapf(models.ErrCurrencyMismatch, "unsupported currency %q", r.Currency)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	held, ok := b.holds[r.ID]
	if !ok {
		return errors.Wrapf(ErrUnknownReservation, "release reservation %d", r.ID)
	}
	delete(b.holds, r.ID)
	b.reserved -= held
	return nil
}

// Credit adds funds without a reservation, used when an inbound transfer
// settles.
func (l *Ledger) Credit(c models.Currency, amount int64) error {
	b, err := l.lookup(c, amount)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.amount > math.MaxInt64-amount {
		return errors.Wrapf(ErrBalanceOverflow, "credit %d %s", amount, c)
	}
	b.amount += amount
	b.updatedAt = l.now()
	return nil
}

// Snapshot returns the balances sorted by currency for the storage layer.
func (l *Ledger) Snapshot() []models.Balance {
	out := make([]models.Balance, 0, len(l.balances))
	for _, c := range l.Currencies() {
		b := l.balances[c]
		b.mu.Lock()
		out = append(out, models.Balance{
			Currency:  c,
			Amount:    b.amount,
			Reserved:  b.reserved,
			UpdatedAt: b.updatedAt,
		})
		b.mu.Unlock()
	}
	return out
}

// Restore loads persisted balances. Reservations are not restored; pending
// transactions re-reserve their funds on recovery.
func (l *Ledger) Restore(balances []models.Balance) error {
	for _, in := range balances {
		if in.Amount < 0 {
			return errors.Errorf("ledger: negative balance %d for %s", in.Amount, in.Currency)
		}
		if _, ok := l.balances[in.Currency]; !ok {
			logrus.WithField("currency", in.Currency).Warn("ledger: skipping balance of unsupported currency")
		}
	}
	for _, in := range balances {
		b, ok := l.balances[in.Currency]
		if !ok {
			continue
		}
		b.mu.Lock()
		b.amount = in.Amount
		b.reserved = 0
		b.holds = make(map[uint64]int64)
		b.updatedAt = in.UpdatedAt
		b.mu.Unlock()
	}
	return nil
}

func (l *Ledger) lookup(c models.Currency, amount int64) (*balance, error) {
	b, ok := l.balances[c]
	if !ok {
		return nil, errors.Wrapf(models.ErrCurrencyMismatch, "unsupported currency %q", c)
	}
	if amount <= 0 {
		return nil, errors.Wrapf(models.ErrNonPositiveAmount, "amount %d", amount)
	}
	return b, nil
}
