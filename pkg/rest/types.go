// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import "time"

type Deal struct {
	ID         int64      `json:"id"`
	Status     string     `json:"status"`
	TonAmount  string     `json:"tonAmount"`
	PriceRub   string     `json:"priceRub"`
	TotalRub   string     `json:"totalRub"`
	BuyerID    *int64     `json:"buyerId,omitempty"`
	TonAddress *string    `json:"tonAddress,omitempty"`
	AvitoURL   string     `json:"avitoUrl"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type DealList struct {
	Deals []Deal `json:"deals"`
	Total int    `json:"total"`
}

type Stats struct {
	TotalDeals     int    `json:"totalDeals"`
	SettledDeals   int    `json:"settledDeals"`
	ActiveDeals    int    `json:"activeDeals"`
	ExpiredDeals   int    `json:"expiredDeals"`
	TotalVolumeTon string `json:"totalVolumeTon"`
	TotalVolumeRub string `json:"totalVolumeRub"`
}

// Error is the error model.
type Error struct {
	// Code is the error code.
	Code ErrorCode `json:"code"`

	// Message is the human readable error message.
	Message string `json:"message"`
}

// ErrorCode is the error code.
type ErrorCode string
