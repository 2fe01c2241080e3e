package txstore

import (
	"slices"
	"strings"

	"wallet_core/models"
)

type Predicate func(models.Transaction) bool

// Filter chips of the history screen. A chip matches either the direction or
// the status of a transaction.
const (
	FilterAll       = "all"
	FilterSent      = "sent"
	FilterReceived  = "received"
	FilterPending   = "pending"
	FilterCompleted = "completed"
	FilterFailed    = "failed"
)

func And(preds ...Predicate) Predicate {
	return func(tx models.Transaction) bool {
		for _, p := range preds {
			if p != nil && !p(tx) {
				return false
			}
		}
		return true
	}
}

func ByStatus(statuses ...models.Status) Predicate {
	return func(tx models.Transaction) bool {
		return slices.Contains(statuses, tx.Status)
	}
}

func ByDirection(d models.Direction) Predicate {
	return func(tx models.Transaction) bool {
		return tx.Direction == d
	}
}

func ByCurrency(c models.Currency) Predicate {
	return func(tx models.Transaction) bool {
		return tx.Currency == c
	}
}

// Matching is a case-insensitive substring search over counterparty and
// currency. An empty text matches everything.
func Matching(text string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(text))
	return func(tx models.Transaction) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(tx.Counterparty), needle) ||
			strings.Contains(strings.ToLower(string(tx.Currency)), needle)
	}
}

// Query is the combined filter and search of the history screen.
type Query struct {
	Filter string `form:"filter"`
	Search string `form:"q"`
}

func (q Query) Predicate() Predicate {
	chip := strings.ToLower(strings.TrimSpace(q.Filter))
	var byChip Predicate
	if chip != "" && chip != FilterAll {
		byChip = func(tx models.Transaction) bool {
			return string(tx.Direction) == chip || string(tx.Status) == chip
		}
	}
	return And(byChip, Matching(q.Search))
}

// Collect drains a filtered sequence, newest first, as the history screen
// shows it.
func Collect(s *Store, pred Predicate) []models.Transaction {
	out := slices.Collect(s.Filter(pred))
	if out == nil {
		return []models.Transaction{}
	}
	slices.Reverse(out)
	return out
}
