package persistence

import (
	"time"

	"github.com/shopspring/decimal"

	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/value"
)

// dealSchema maps a deals table row.
type dealSchema struct {
	ID                 int64           `db:"id"`
	AvitoURL           string          `db:"avito_url"`
	AvitoItemID        *string         `db:"avito_item_id"`
	Title              string          `db:"title"`
	SellerName         string          `db:"seller_name"`
	TonAmount          decimal.Decimal `db:"ton_amount"`
	PriceRub           decimal.Decimal `db:"price_rub"`
	TotalRub           decimal.Decimal `db:"total_rub"`
	Status             string          `db:"status"`
	BuyerID            *int64          `db:"buyer_id"`
	TonAddress         *string         `db:"ton_address"`
	SettlementTxRef    *string         `db:"settlement_tx_ref"`
	PayoutTxHash       *string         `db:"payout_tx_hash"`
	PayoutFailed       bool            `db:"payout_failed"`
	CreatedAt          time.Time       `db:"created_at"`
	PaymentConfirmedAt *time.Time      `db:"payment_confirmed_at"`
	ExpiresAt          *time.Time      `db:"expires_at"`
	SettledAt          *time.Time      `db:"settled_at"`
}

func (s *dealSchema) toDomain() *entity.Deal {
	deal := &entity.Deal{
		ID:                 s.ID,
		AvitoURL:           s.AvitoURL,
		Title:              s.Title,
		SellerName:         s.SellerName,
		TonAmount:          s.TonAmount,
		PriceRub:           s.PriceRub,
		TotalRub:           s.TotalRub,
		Status:             entity.DealStatus(s.Status),
		BuyerID:            s.BuyerID,
		SettlementTxRef:    s.SettlementTxRef,
		PayoutTxHash:       s.PayoutTxHash,
		PayoutFailed:       s.PayoutFailed,
		CreatedAt:          s.CreatedAt,
		PaymentConfirmedAt: s.PaymentConfirmedAt,
		ExpiresAt:          s.ExpiresAt,
		SettledAt:          s.SettledAt,
	}

	if s.AvitoItemID != nil {
		deal.AvitoItemID = *s.AvitoItemID
	}

	if s.TonAddress != nil {
		address := value.TonAddress(*s.TonAddress)
		deal.TonAddress = &address
	}

	return deal
}

// userSchema maps a users table row.
type userSchema struct {
	ID             int64           `db:"id"`
	Username       string          `db:"username"`
	City           string          `db:"city"`
	PaymentMethods string          `db:"payment_methods"`
	MinProfitPct   float64         `db:"min_profit_pct"`
	IsPremium      bool            `db:"is_premium"`
	BalanceRub     decimal.Decimal `db:"balance_rub"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (s *userSchema) toDomain() *entity.User {
	return &entity.User{
		ID:             s.ID,
		Username:       s.Username,
		City:           s.City,
		PaymentMethods: s.PaymentMethods,
		MinProfitPct:   s.MinProfitPct,
		IsPremium:      s.IsPremium,
		BalanceRub:     s.BalanceRub,
		CreatedAt:      s.CreatedAt,
	}
}

// ratingSchema maps a seller_ratings table row.
type ratingSchema struct {
	SellerName   string          `db:"seller_name"`
	Platform     string          `db:"platform"`
	SuccessCount int             `db:"success_count"`
	FailCount    int             `db:"fail_count"`
	VolumeRub    decimal.Decimal `db:"volume_rub"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (s *ratingSchema) toDomain() *entity.Rating {
	return &entity.Rating{
		SellerName:   s.SellerName,
		Platform:     s.Platform,
		SuccessCount: s.SuccessCount,
		FailCount:    s.FailCount,
		VolumeRub:    s.VolumeRub,
		UpdatedAt:    s.UpdatedAt,
	}
}

// reviewSchema maps a seller_reviews table row.
type reviewSchema struct {
	ID         int64     `db:"id"`
	DealID     int64     `db:"deal_id"`
	UserID     int64     `db:"user_id"`
	SellerName string    `db:"seller_name"`
	Score      int       `db:"score"`
	Text       string    `db:"review_text"`
	IsScam     bool      `db:"is_scam"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *reviewSchema) toDomain() entity.Review {
	return entity.Review{
		ID:         s.ID,
		DealID:     s.DealID,
		UserID:     s.UserID,
		SellerName: s.SellerName,
		Score:      s.Score,
		Text:       s.Text,
		IsScam:     s.IsScam,
		CreatedAt:  s.CreatedAt,
	}
}
