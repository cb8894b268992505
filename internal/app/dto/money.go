package dto

import "apexrentals/internal/domain/shared/money"

// Money carries minor units alongside a display amount.
type Money struct {
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

func MapMoney(value money.Money) Money {
	return Money{AmountCents: value.Amount, Amount: value.Decimal(), Currency: value.Currency}
}
