package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"wallet_core/models"
	"wallet_core/pkg/ledger"
	"wallet_core/pkg/txstore"
)

const DefaultPendingTimeout = 5 * time.Minute

// Journal persists balances and history so they survive a restart.
// SaveState writes the transactions and the balances atomically: either
// both reach storage or neither does.
type Journal interface {
	SaveState(ctx context.Context, txs []models.Transaction, balances []models.Balance) error
	LoadBalances(ctx context.Context) ([]models.Balance, error)
	LoadTransactions(ctx context.Context) ([]models.Transaction, error)
}

// Listener is called with every transaction the engine changed, after the
// change is visible.
type Listener func(tx models.Transaction)

type EngineOption func(*Engine)

func WithJournal(j Journal) EngineOption {
	return func(e *Engine) { e.journal = j }
}

func WithListener(l Listener) EngineOption {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithPendingTimeout sets how long an outbound transaction may wait for
// confirmation. Zero disables expiry.
func WithPendingTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = d }
}

type pendingTx struct {
	reservation *ledger.Reservation
	confirmed   bool
}

// Engine owns the transaction lifecycle:
//
//	pending -> completed
//	pending -> failed
//
// State changes are serialized by mu. Ledger mutation and the status change
// of a settlement happen under the same lock.
type Engine struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	store     *txstore.Store
	validator *Validator
	confirmer ConfirmationProvider
	journal   Journal
	listeners []Listener
	now       func() time.Time
	last      time.Time
	timeout   time.Duration
	pending   map[uuid.UUID]*pendingTx
	intents   map[string]struct{}

	persistMu sync.Mutex
}

func NewEngine(l *ledger.Ledger, store *txstore.Store, fees FeeSchedule, confirmer ConfirmationProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		ledger:    l,
		store:     store,
		validator: NewValidator(l, fees),
		confirmer: confirmer,
		now:       time.Now,
		timeout:   DefaultPendingTimeout,
		pending:   make(map[uuid.UUID]*pendingTx),
		intents:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Quote validates req without reserving anything.
func (e *Engine) Quote(req TransferRequest) (Quote, error) {
	return e.validator.Validate(withDefaults(req))
}

// CreateFromRequest validates req, reserves the outbound debit and records a
// pending transaction. A rejected request changes nothing.
func (e *Engine) CreateFromRequest(ctx context.Context, req TransferRequest) (models.Transaction, error) {
	e.mu.Lock()
	tx, err := e.createLocked(req, nil)
	e.mu.Unlock()
	if err != nil {
		return models.Transaction{}, err
	}

	e.committed(ctx, tx)
	return tx, nil
}

// CreateFromIntent pays a captured intent. An intent is consumed by the
// first transaction created from it; a rejected attempt does not consume it.
func (e *Engine) CreateFromIntent(ctx context.Context, intent models.PaymentIntent) (models.Transaction, error) {
	if intent.ID == "" {
		return models.Transaction{}, errors.Wrap(models.ErrMalformedPayload, "intent without id")
	}
	if len(intent.ID) > models.MaxTextLen {
		return models.Transaction{}, errors.Wrapf(models.ErrMalformedPayload, "intent id longer than %d bytes", models.MaxTextLen)
	}
	req := TransferRequest{
		Direction:    models.DirectionSent,
		Counterparty: intent.Payee(),
		MerchantID:   intent.MerchantID,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
		Channel:      intent.Channel,
		IntentID:     intent.ID,
	}

	e.mu.Lock()
	if _, used := e.intents[intent.ID]; used {
		e.mu.Unlock()
		logrus.WithField("intent", intent.ID).Warn("engine: duplicate payment intent")
		return models.Transaction{}, errors.Wrapf(models.ErrDuplicateIntent, "intent %s", intent.ID)
	}
	tx, err := e.createLocked(req, nil)
	if err == nil {
		e.intents[intent.ID] = struct{}{}
	}
	e.mu.Unlock()
	if err != nil {
		return models.Transaction{}, err
	}

	e.committed(ctx, tx)
	return tx, nil
}

// Confirm verifies the proof for an outbound pending transaction. The
// provider runs without the engine lock; the state is checked again after.
// A rejected proof leaves the transaction pending.
func (e *Engine) Confirm(ctx context.Context, id uuid.UUID, proof models.ConfirmationProof) (models.Transaction, error) {
	e.mu.Lock()
	tx, _, err := e.confirmableLocked(id)
	e.mu.Unlock()
	if err != nil {
		return tx, err
	}

	if err := e.verify(ctx, tx, proof); err != nil {
		logrus.WithFields(logrus.Fields{"transaction": id, "error": err}).Warn("engine: confirmation rejected")
		return tx, err
	}

	e.mu.Lock()
	tx, p, err := e.confirmableLocked(id)
	if err != nil {
		e.mu.Unlock()
		return tx, err
	}
	now := e.stamp()
	tx, err = e.store.Update(id, func(t *models.Transaction) error {
		t.ConfirmedAt = &now
		t.UpdatedAt = now
		return nil
	})
	if err == nil {
		p.confirmed = true
	}
	e.mu.Unlock()
	if err != nil {
		return tx, err
	}

	logrus.WithField("transaction", id).Info("engine: transaction confirmed")
	e.committed(ctx, tx)
	return tx, nil
}

// Settle completes a pending transaction: the outbound reservation is
// committed or the inbound amount credited, and the status becomes
// completed. If the ledger refuses, the transaction fails instead.
func (e *Engine) Settle(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	e.mu.Lock()
	tx, err := e.store.Get(id)
	if err != nil {
		e.mu.Unlock()
		return tx, err
	}
	p, err := e.pendingLocked(tx)
	if err != nil {
		e.mu.Unlock()
		return tx, err
	}
	if tx.RequiresConfirmation() && !p.confirmed {
		e.mu.Unlock()
		return tx, errors.Wrapf(models.ErrNotConfirmed, "transaction %s", id)
	}

	var ledgerErr error
	if p.reservation != nil {
		ledgerErr = e.ledger.Commit(*p.reservation)
	} else {
		ledgerErr = e.ledger.Credit(tx.Currency, tx.Amount)
	}
	if ledgerErr != nil {
		logrus.WithFields(logrus.Fields{
			"transaction": id,
			"currency":    tx.Currency,
			"amount":      tx.Amount,
			"fee":         tx.Fee,
			"error":       ledgerErr,
		}).Error("engine: settlement failed, ledger rejected the transaction")
		failed, err := e.failLocked(tx, "settlement failed")
		e.mu.Unlock()
		if err == nil {
			e.committed(ctx, failed)
		}
		return failed, errors.Wrapf(models.ErrSettlementFailed, "transaction %s: %v", id, ledgerErr)
	}

	now := e.stamp()
	settled, err := e.store.Update(id, func(t *models.Transaction) error {
		t.Status = models.StatusCompleted
		t.SettledAt = &now
		t.UpdatedAt = now
		return nil
	})
	delete(e.pending, id)
	e.mu.Unlock()
	if err != nil {
		logrus.WithFields(logrus.Fields{"transaction": id, "error": err}).Error("engine: ledger settled but history update failed")
		return settled, errors.Wrapf(models.ErrSettlementFailed, "transaction %s: %v", id, err)
	}

	logrus.WithFields(logrus.Fields{
		"transaction": id,
		"direction":   settled.Direction,
		"currency":    settled.Currency,
		"amount":      settled.Amount,
	}).Info("engine: transaction settled")
	e.committed(ctx, settled)
	return settled, nil
}

// Fail cancels a pending transaction and releases its reservation.
func (e *Engine) Fail(ctx context.Context, id uuid.UUID, reason string) (models.Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "cancelled by user"
	}

	e.mu.Lock()
	tx, err := e.store.Get(id)
	if err != nil {
		e.mu.Unlock()
		return tx, err
	}
	if _, err := e.pendingLocked(tx); err != nil {
		e.mu.Unlock()
		return tx, err
	}
	failed, err := e.failLocked(tx, reason)
	e.mu.Unlock()
	if err != nil {
		return failed, err
	}

	e.committed(ctx, failed)
	return failed, nil
}

// Retry creates a new transaction with the parameters of a failed one. The
// failed transaction itself is never reused.
func (e *Engine) Retry(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	e.mu.Lock()
	old, err := e.store.Get(id)
	if err != nil {
		e.mu.Unlock()
		return models.Transaction{}, err
	}
	if old.Status != models.StatusFailed {
		e.mu.Unlock()
		return models.Transaction{}, errors.Wrapf(models.ErrInvalidTransition, "only failed transactions can be retried, %s is %s", id, old.Status)
	}
	req := TransferRequest{
		Direction:    old.Direction,
		Counterparty: old.Counterparty,
		MerchantID:   old.MerchantID,
		Amount:       models.AmountDecimal(old.Amount, old.Currency),
		Currency:     old.Currency,
		Channel:      old.Channel,
		Note:         old.Note,
		IntentID:     old.IntentID,
	}
	tx, err := e.createLocked(req, &old.ID)
	e.mu.Unlock()
	if err != nil {
		return models.Transaction{}, err
	}

	e.committed(ctx, tx)
	return tx, nil
}

// ExpirePending fails every outbound transaction that has waited for
// confirmation longer than the pending timeout at now.
func (e *Engine) ExpirePending(ctx context.Context, now time.Time) []models.Transaction {
	if e.timeout <= 0 {
		return nil
	}

	e.mu.Lock()
	var expired []models.Transaction
	for id, p := range e.pending {
		if p.confirmed {
			continue
		}
		tx, err := e.store.Get(id)
		if err != nil || !tx.RequiresConfirmation() || now.Sub(tx.CreatedAt) < e.timeout {
			continue
		}
		failed, err := e.failLocked(tx, "confirmation timed out")
		if err != nil {
			logrus.WithFields(logrus.Fields{"transaction": id, "error": err}).Error("engine: expire pending transaction")
			continue
		}
		logrus.WithFields(logrus.Fields{"transaction": id, "created_at": tx.CreatedAt}).Warn("engine: pending transaction expired")
		expired = append(expired, failed)
	}
	e.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].CreatedAt.Before(expired[j].CreatedAt) })
	e.committed(ctx, expired...)
	return expired
}

// RunExpiry calls ExpirePending every interval until ctx is done.
func (e *Engine) RunExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.WithField("interval", interval.String()).Info("engine: expiry worker started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("engine: expiry worker stopped")
			return
		case <-ticker.C:
			e.ExpirePending(ctx, e.now())
		}
	}
}

// Recover loads the journal into the ledger and history. Pending outbound
// transactions reserve their funds again; one that no longer fits the
// balance is failed.
func (e *Engine) Recover(ctx context.Context) error {
	if e.journal == nil {
		return nil
	}
	balances, err := e.journal.LoadBalances(ctx)
	if err != nil {
		return errors.Wrap(err, "load balances")
	}
	txs, err := e.journal.LoadTransactions(ctx)
	if err != nil {
		return errors.Wrap(err, "load transactions")
	}

	e.mu.Lock()
	if err := e.ledger.Restore(balances); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.store.Restore(txs); err != nil {
		e.mu.Unlock()
		return err
	}
	e.pending = make(map[uuid.UUID]*pendingTx)
	e.intents = make(map[string]struct{})

	var failed []models.Transaction
	for _, tx := range e.store.All() {
		if tx.IntentID != "" {
			e.intents[tx.IntentID] = struct{}{}
		}
		if tx.UpdatedAt.After(e.last) {
			e.last = tx.UpdatedAt
		}
		if tx.Status != models.StatusPending {
			continue
		}

		p := &pendingTx{confirmed: tx.ConfirmedAt != nil}
		e.pending[tx.ID] = p
		if tx.Direction != models.DirectionSent {
			continue
		}
		r, err := e.ledger.Reserve(tx.Currency, tx.Debit())
		if err != nil {
			logrus.WithFields(logrus.Fields{"transaction": tx.ID, "error": err}).Warn("engine: cannot reserve funds for recovered transaction")
			if f, err := e.failLocked(tx, "funds unavailable after restart"); err == nil {
				failed = append(failed, f)
			}
			continue
		}
		p.reservation = &r
	}
	pending := len(e.pending)
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{"transactions": len(txs), "pending": pending}).Info("engine: state recovered")
	e.committed(ctx, failed...)
	return nil
}

func (e *Engine) Get(id uuid.UUID) (models.Transaction, error) {
	return e.store.Get(id)
}

// List returns the history matching q, newest first.
func (e *Engine) List(q txstore.Query) []models.Transaction {
	return txstore.Collect(e.store, q.Predicate())
}

func withDefaults(req TransferRequest) TransferRequest {
	if req.Direction == "" {
		req.Direction = models.DirectionSent
	}
	if req.Channel == "" {
		req.Channel = models.ChannelAddress
	}
	req.Counterparty = strings.TrimSpace(req.Counterparty)
	req.Note = strings.TrimSpace(req.Note)
	return req
}

func (e *Engine) createLocked(req TransferRequest, retryOf *uuid.UUID) (models.Transaction, error) {
	req = withDefaults(req)
	q, err := e.validator.Validate(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"counterparty": req.Counterparty,
			"currency":     req.Currency,
			"amount":       req.Amount.String(),
			"error":        err,
		}).Info("engine: transfer rejected")
		return models.Transaction{}, err
	}

	p := &pendingTx{}
	if req.Direction == models.DirectionSent {
		r, err := e.ledger.Reserve(q.Currency, q.Total())
		if err != nil {
			return models.Transaction{}, err
		}
		p.reservation = &r
	}

	now := e.stamp()
	tx := models.Transaction{
		ID:           uuid.New(),
		Direction:    req.Direction,
		Counterparty: req.Counterparty,
		MerchantID:   req.MerchantID,
		Amount:       q.Amount,
		Fee:          q.Fee,
		Currency:     q.Currency,
		Status:       models.StatusPending,
		Channel:      req.Channel,
		Note:         req.Note,
		IntentID:     req.IntentID,
		RetryOf:      retryOf,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.Append(tx); err != nil {
		if p.reservation != nil {
			_ = e.ledger.Release(*p.reservation)
		}
		return models.Transaction{}, err
	}
	e.pending[tx.ID] = p

	logrus.WithFields(logrus.Fields{
		"transaction": tx.ID,
		"direction":   tx.Direction,
		"channel":     tx.Channel,
		"currency":    tx.Currency,
		"amount":      tx.Amount,
		"fee":         tx.Fee,
	}).Info("engine: transaction created")
	return tx, nil
}

func (e *Engine) pendingLocked(tx models.Transaction) (*pendingTx, error) {
	if tx.Status.IsTerminal() {
		return nil, errors.Wrapf(models.ErrInvalidTransition, "transaction %s is %s", tx.ID, tx.Status)
	}
	p, ok := e.pending[tx.ID]
	if !ok {
		return nil, errors.Wrapf(models.ErrInvalidTransition, "transaction %s is not tracked as pending", tx.ID)
	}
	return p, nil
}

func (e *Engine) confirmableLocked(id uuid.UUID) (models.Transaction, *pendingTx, error) {
	tx, err := e.store.Get(id)
	if err != nil {
		return tx, nil, err
	}
	p, err := e.pendingLocked(tx)
	if err != nil {
		return tx, nil, err
	}
	if !tx.RequiresConfirmation() {
		return tx, nil, errors.Wrapf(models.ErrInvalidTransition, "inbound transaction %s needs no confirmation", id)
	}
	if p.confirmed {
		return tx, nil, errors.Wrapf(models.ErrInvalidTransition, "transaction %s is already confirmed", id)
	}
	return tx, p, nil
}

// failLocked releases the reservation of a pending transaction and marks it
// failed.
func (e *Engine) failLocked(tx models.Transaction, reason string) (models.Transaction, error) {
	if p, ok := e.pending[tx.ID]; ok && p.reservation != nil {
		if err := e.ledger.Release(*p.reservation); err != nil {
			logrus.WithFields(logrus.Fields{"transaction": tx.ID, "error": err}).Error("engine: release reservation")
		}
	}
	delete(e.pending, tx.ID)

	now := e.stamp()
	failed, err := e.store.Update(tx.ID, func(t *models.Transaction) error {
		t.Status = models.StatusFailed
		t.FailureReason = reason
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return failed, err
	}
	logrus.WithFields(logrus.Fields{"transaction": tx.ID, "reason": reason}).Info("engine: transaction failed")
	return failed, nil
}

func (e *Engine) verify(ctx context.Context, tx models.Transaction, proof models.ConfirmationProof) error {
	if e.confirmer == nil {
		return errors.Wrap(models.ErrConfirmationRejected, "no confirmation provider")
	}
	err := e.confirmer.Verify(ctx, tx, proof)
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrConfirmationRejected) || errors.Is(err, models.ErrConfirmationCancelled) {
		return err
	}
	return errors.Wrapf(models.ErrConfirmationRejected, "%v", err)
}

// stamp returns a timestamp strictly after every previous one, truncated to
// what the journal stores.
func (e *Engine) stamp() time.Time {
	now := e.now().UTC().Truncate(time.Microsecond)
	if !now.After(e.last) {
		now = e.last.Add(time.Microsecond)
	}
	e.last = now
	return now
}

// committed persists the latest state of txs together with the balances,
// then notifies listeners. A journal failure is logged; the in-memory state
// stays authoritative and the journal keeps the previous consistent state.
func (e *Engine) committed(ctx context.Context, txs ...models.Transaction) {
	if len(txs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if e.journal != nil {
		e.persistMu.Lock()
		latest := make([]models.Transaction, 0, len(txs))
		for _, tx := range txs {
			if cur, err := e.store.Get(tx.ID); err == nil {
				tx = cur
			}
			latest = append(latest, tx)
		}
		if err := e.journal.SaveState(ctx, latest, e.ledger.Snapshot()); err != nil {
			logrus.WithFields(logrus.Fields{"transactions": len(latest), "error": err}).Error("engine: persist state")
		}
		e.persistMu.Unlock()
	}

	for _, tx := range txs {
		for _, l := range e.listeners {
			l(tx)
		}
	}
}
