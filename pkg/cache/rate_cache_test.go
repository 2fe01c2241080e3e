package cache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRateCacheExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewRateCache(10 * time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get("bitcoin_usd")
	assert.False(t, ok)

	c.Set("bitcoin_usd", decimal.NewFromInt(45000))

	now = now.Add(9 * time.Minute)
	rate, ok := c.Get("bitcoin_usd")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(45000)))

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("bitcoin_usd")
	assert.False(t, ok)
}
