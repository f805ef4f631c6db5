package entity

import "github.com/shopspring/decimal"

type DealStats struct {
	TotalDeals     int
	SettledDeals   int
	ActiveDeals    int
	ExpiredDeals   int
	TotalVolumeTon decimal.Decimal
	TotalVolumeRub decimal.Decimal
}
