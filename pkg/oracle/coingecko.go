package oracle

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_core/models"
	"wallet_core/pkg/cache"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

type CoinGeckoConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type CoinGecko struct {
	client *resty.Client
	cache  *cache.RateCache
}

func NewCoinGecko(cfg CoinGeckoConfig, rates *cache.RateCache) *CoinGecko {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCoinGeckoURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("x-cg-demo-api-key", cfg.APIKey)
	}

	return &CoinGecko{client: client, cache: rates}
}

func (g *CoinGecko) Price(ctx context.Context, c models.Currency) (decimal.Decimal, error) {
	id := currencyID(c)
	key := id + "_usd"

	if g.cache != nil {
		if rate, found := g.cache.Get(key); found {
			return rate, nil
		}
	}

	var result map[string]map[string]decimal.Decimal
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"ids": id, "vs_currencies": "usd"}).
		SetResult(&result).
		Get("/simple/price")
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrPriceUnavailable, "coingecko %s: %v", id, err)
	}
	if resp.IsError() {
		logrus.WithFields(logrus.Fields{"currency": c, "status": resp.StatusCode()}).Warn("coingecko: price request failed")
		return decimal.Zero, errors.Wrapf(ErrPriceUnavailable, "coingecko %s: status %d", id, resp.StatusCode())
	}

	rate, ok := result[id]["usd"]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrPriceUnavailable, "coingecko %s: no usd quote", id)
	}

	if g.cache != nil {
		g.cache.Set(key, rate)
	}
	return rate, nil
}

func currencyID(c models.Currency) string {
	switch c {
	case models.USDT:
		return "tether"
	case models.BTC:
		return "bitcoin"
	case models.ETH:
		return "ethereum"
	default:
		return strings.ToLower(string(c))
	}
}
