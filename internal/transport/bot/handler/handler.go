package handler

import (
	"context"

	"tonhunter/internal/domain/entity"
	dealservice "tonhunter/internal/domain/service/deal"
	"tonhunter/internal/domain/service/rating"
)

// UserDirectory registers users on /start, stores their preferences and
// enumerates them for admin broadcasts.
type UserDirectory interface {
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	ListIDs(ctx context.Context) ([]int64, error)
	UpdateSettings(ctx context.Context, userID int64, city, paymentMethods string, minProfitPct float64) error
	SetPremium(ctx context.Context, userID int64) error
}

// WalletInfo exposes the custodial wallet address sellers transfer to.
type WalletInfo interface {
	Address(ctx context.Context) (string, error)
}

type Handler struct {
	deals        *dealservice.Service
	ratings      *rating.Service
	users        UserDirectory
	wallet       WalletInfo
	premiumToken string
}

func New(
	deals *dealservice.Service,
	ratings *rating.Service,
	users UserDirectory,
	wallet WalletInfo,
	premiumToken string,
) *Handler {
	return &Handler{
		deals:        deals,
		ratings:      ratings,
		users:        users,
		wallet:       wallet,
		premiumToken: premiumToken,
	}
}
