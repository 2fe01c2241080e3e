package models

import "time"

// Balance is the serializable snapshot of one currency balance.
type Balance struct {
	Currency  Currency  `db:"currency" json:"currency"`
	Amount    int64     `db:"amount" json:"amount"`
	Reserved  int64     `db:"reserved" json:"reserved"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (b Balance) Available() int64 {
	return b.Amount - b.Reserved
}

type BalanceView struct {
	Balance
	Display          string `json:"display"`
	AvailableDisplay string `json:"available_display"`
}

func (b Balance) View() BalanceView {
	return BalanceView{
		Balance:          b,
		Display:          FormatAmount(b.Amount, b.Currency),
		AvailableDisplay: FormatAmount(b.Available(), b.Currency),
	}
}
