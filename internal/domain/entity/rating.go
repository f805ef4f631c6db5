package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rating is the accumulated trade history of a marketplace seller.
type Rating struct {
	SellerName   string
	Platform     string
	SuccessCount int
	FailCount    int
	VolumeRub    decimal.Decimal
	UpdatedAt    time.Time
}

func (r *Rating) TotalDeals() int {
	return r.SuccessCount + r.FailCount
}

// Review is a single post-deal review left by a buyer.
type Review struct {
	ID         int64
	DealID     int64
	UserID     int64
	SellerName string
	Score      int // 1..5
	Text       string
	IsScam     bool
	CreatedAt  time.Time
}
