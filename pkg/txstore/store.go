// Package txstore holds the append-only transaction history of the account.
package txstore

import (
	"iter"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"wallet_core/models"
)

var ErrDuplicateID = errors.New("txstore: transaction id already stored")

// Store keeps transactions in insertion order, which is chronological since
// the engine hands out monotonic creation timestamps.
type Store struct {
	mu    sync.RWMutex
	txs   []models.Transaction
	index map[uuid.UUID]int
}

func New() *Store {
	return &Store{index: make(map[uuid.UUID]int)}
}

func (s *Store) Append(tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[tx.ID]; ok {
		return errors.Wrapf(ErrDuplicateID, "append %s", tx.ID)
	}
	s.index[tx.ID] = len(s.txs)
	s.txs = append(s.txs, tx)
	return nil
}

func (s *Store) Get(id uuid.UUID) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Transaction{}, errors.Wrapf(models.ErrTransactionNotFound, "transaction %s", id)
	}
	return s.txs[i], nil
}

// Update applies fn to a stored transaction that is still pending. Terminal
// transactions are immutable. If fn fails nothing is changed.
func (s *Store) Update(id uuid.UUID, fn func(*models.Transaction) error) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.Transaction{}, errors.Wrapf(models.ErrTransactionNotFound, "transaction %s", id)
	}
	if s.txs[i].Status.IsTerminal() {
		return s.txs[i], errors.Wrapf(models.ErrInvalidTransition, "transaction %s is %s", id, s.txs[i].Status)
	}

	next := s.txs[i]
	if err := fn(&next); err != nil {
		return s.txs[i], err
	}
	next.ID = id
	s.txs[i] = next
	return next, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// All returns a copy of the history, oldest first.
func (s *Store) All() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Filter lazily yields the transactions matching pred, oldest first. Each
// element is read under the lock, so appends made while iterating are seen.
func (s *Store) Filter(pred Predicate) iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		for i := 0; ; i++ {
			s.mu.RLock()
			if i >= len(s.txs) {
				s.mu.RUnlock()
				return
			}
			tx := s.txs[i]
			s.mu.RUnlock()

			if pred != nil && !pred(tx) {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// Restore replaces the history with persisted transactions, ordered by
// creation time.
func (s *Store) Restore(txs []models.Transaction) error {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	index := make(map[uuid.UUID]int, len(sorted))
	for i, tx := range sorted {
		if _, ok := index[tx.ID]; ok {
			return errors.Wrapf(ErrDuplicateID, "restore %s", tx.ID)
		}
		index[tx.ID] = i
	}

	s.mu.Lock()
	s.txs = sorted
	s.index = index
	s.mu.Unlock()
	return nil
}
