package models

import "strings"

type Currency string

const (
	BTC  Currency = "BTC"
	ETH  Currency = "ETH"
	USDT Currency = "USDT"
)

// CurrencyInfo is immutable reference data. Decimals is the exponent of the
// smallest indivisible unit (satoshi for BTC).
type CurrencyInfo struct {
	Symbol   Currency `json:"symbol"`
	Name     string   `json:"name"`
	Decimals int32    `json:"decimals"`
}

var currencies = map[Currency]CurrencyInfo{
	BTC:  {Symbol: BTC, Name: "Bitcoin", Decimals: 8},
	ETH:  {Symbol: ETH, Name: "Ethereum", Decimals: 9}, // gwei, wei does not fit int64
	USDT: {Symbol: USDT, Name: "Tether", Decimals: 2},
}

// SupportedCurrencies returns the wallet currencies in display order.
func SupportedCurrencies() []Currency {
	return []Currency{BTC, ETH, USDT}
}

func LookupCurrency(c Currency) (CurrencyInfo, bool) {
	info, ok := currencies[c]
	return info, ok
}

// ParseCurrency normalizes user or payload input ("usdt ", "Btc") to a symbol.
// It does not check support; the validator does.
func ParseCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

func (c Currency) String() string {
	return string(c)
}
