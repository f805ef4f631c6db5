package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID             int64
	Username       string
	City           string
	PaymentMethods string
	MinProfitPct   float64
	IsPremium      bool
	BalanceRub     decimal.Decimal
	CreatedAt      time.Time
}
