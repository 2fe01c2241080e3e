package txstore

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_core/models"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// history mirrors the sample list of the transactions screen.
func history() []models.Transaction {
	mk := func(i int, d models.Direction, who string, c models.Currency, s models.Status) models.Transaction {
		return models.Transaction{
			ID:           uuid.New(),
			Direction:    d,
			Counterparty: who,
			Amount:       100,
			Currency:     c,
			Status:       s,
			Channel:      models.ChannelAddress,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
	}
	return []models.Transaction{
		mk(0, models.DirectionReceived, "Online Store", models.USDT, models.StatusCompleted),
		mk(1, models.DirectionSent, "Alice Smith", models.ETH, models.StatusCompleted),
		mk(2, models.DirectionReceived, "Restaurant", models.USDT, models.StatusPending),
		mk(3, models.DirectionSent, "John Doe", models.BTC, models.StatusCompleted),
		mk(4, models.DirectionReceived, "Coffee Shop", models.USDT, models.StatusCompleted),
		mk(5, models.DirectionSent, "Bob", models.USDT, models.StatusFailed),
	}
}

func seeded(t *testing.T) (*Store, []models.Transaction) {
	t.Helper()
	s := New()
	txs := history()
	for _, tx := range txs {
		require.NoError(t, s.Append(tx))
	}
	return s, txs
}

func counterparties(txs []models.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.Counterparty)
	}
	return out
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	s, txs := seeded(t)

	all := s.All()
	require.Len(t, all, len(txs))
	for i := range txs {
		assert.Equal(t, txs[i].ID, all[i].ID)
	}

	err := s.Append(txs[0])
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, len(txs), s.Len())
}

func TestGetUnknown(t *testing.T) {
	s := New()
	_, err := s.Get(uuid.New())
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestUpdateTerminalIsImmutable(t *testing.T) {
	s, txs := seeded(t)

	_, err := s.Update(txs[0].ID, func(tx *models.Transaction) error {
		tx.Note = "edited"
		return nil
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	got, err := s.Get(txs[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.Note)

	updated, err := s.Update(txs[2].ID, func(tx *models.Transaction) error {
		tx.Status = models.StatusCompleted
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
}

func TestUpdateCallbackErrorLeavesRecord(t *testing.T) {
	s, txs := seeded(t)
	boom := errors.New("boom")

	_, err := s.Update(txs[2].ID, func(tx *models.Transaction) error {
		tx.Status = models.StatusFailed
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(txs[2].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestQuery(t *testing.T) {
	s, _ := seeded(t)

	cases := []struct {
		name  string
		query Query
		want  []string
	}{
		{"all", Query{Filter: FilterAll}, []string{"Bob", "Coffee Shop", "John Doe", "Restaurant", "Alice Smith", "Online Store"}},
		{"empty filter is all", Query{}, []string{"Bob", "Coffee Shop", "John Doe", "Restaurant", "Alice Smith", "Online Store"}},
		{"sent", Query{Filter: FilterSent}, []string{"Bob", "John Doe", "Alice Smith"}},
		{"received", Query{Filter: FilterReceived}, []string{"Coffee Shop", "Restaurant", "Online Store"}},
		{"pending", Query{Filter: FilterPending}, []string{"Restaurant"}},
		{"failed", Query{Filter: FilterFailed}, []string{"Bob"}},
		{"search counterparty case-insensitive", Query{Search: "coFFee"}, []string{"Coffee Shop"}},
		{"search currency", Query{Search: "btc"}, []string{"John Doe"}},
		{"filter and search", Query{Filter: FilterReceived, Search: "usdt"}, []string{"Coffee Shop", "Restaurant", "Online Store"}},
		{"filter and search no overlap", Query{Filter: FilterSent, Search: "restaurant"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Collect(s, tc.query.Predicate())
			assert.Equal(t, tc.want, counterparties(got))
		})
	}
}

func TestFilterIsLazy(t *testing.T) {
	s, _ := seeded(t)

	visited := 0
	for tx := range s.Filter(func(tx models.Transaction) bool {
		visited++
		return tx.Currency == models.USDT
	}) {
		assert.Equal(t, "Online Store", tx.Counterparty)
		break
	}
	assert.Equal(t, 1, visited)
}

func TestPredicates(t *testing.T) {
	s, _ := seeded(t)

	usdtSent := slices.Collect(s.Filter(And(ByCurrency(models.USDT), ByDirection(models.DirectionSent))))
	assert.Equal(t, []string{"Bob"}, counterparties(usdtSent))

	open := slices.Collect(s.Filter(ByStatus(models.StatusPending, models.StatusFailed)))
	assert.Equal(t, []string{"Restaurant", "Bob"}, counterparties(open))
}

func TestRestoreOrdersByCreation(t *testing.T) {
	txs := history()
	slices.Reverse(txs)

	s := New()
	require.NoError(t, s.Restore(txs))
	assert.Equal(t, []string{"Online Store", "Alice Smith", "Restaurant", "John Doe", "Coffee Shop", "Bob"}, counterparties(s.All()))

	_, err := s.Get(txs[0].ID)
	assert.NoError(t, err)

	dup := append(slices.Clone(txs), txs[0])
	assert.ErrorIs(t, New().Restore(dup), ErrDuplicateID)
}
