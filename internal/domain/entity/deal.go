package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tonhunter/internal/domain/value"
)

type DealStatus string

const (
	StatusUnclaimed        DealStatus = "unclaimed"
	StatusReserved         DealStatus = "reserved_awaiting_payment"
	StatusPaymentConfirmed DealStatus = "payment_confirmed_awaiting_address"
	StatusAddressBound     DealStatus = "address_bound_awaiting_settlement"
	StatusSettled          DealStatus = "settled"
	StatusExpired          DealStatus = "expired_timeout"
	StatusCancelled        DealStatus = "cancelled"
	StatusRefunded         DealStatus = "refunded"
)

// Terminal reports whether the status admits no further transitions.
func (s DealStatus) Terminal() bool {
	switch s {
	case StatusSettled, StatusExpired, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// Active reports whether the deal still occupies a buyer slot.
func (s DealStatus) Active() bool {
	switch s {
	case StatusReserved, StatusPaymentConfirmed, StatusAddressBound:
		return true
	default:
		return false
	}
}

type Deal struct {
	ID int64

	// Listing data the deal was created from. AvitoItemID is the
	// marketplace item identifier, empty when it could not be parsed
	// out of the URL.
	AvitoURL    string
	AvitoItemID string
	Title       string
	SellerName  string

	// TonAmount is the number of TON the buyer receives.
	TonAmount decimal.Decimal
	// PriceRub is the seller's listing price.
	PriceRub decimal.Decimal
	// TotalRub is what the buyer pays: PriceRub plus commission.
	TotalRub decimal.Decimal

	Status DealStatus

	BuyerID    *int64
	TonAddress *value.TonAddress

	// SettlementTxRef is the inbound transfer the deal was settled
	// against. At most one transfer ever settles a deal.
	SettlementTxRef *string
	PayoutTxHash    *string
	// PayoutFailed marks a settled deal whose outbound payout needs
	// manual attention.
	PayoutFailed bool

	CreatedAt          time.Time
	PaymentConfirmedAt *time.Time
	// ExpiresAt is set when the payment is confirmed, nil before that.
	// Paid deals past this instant are swept to expired_timeout.
	ExpiresAt *time.Time
	SettledAt *time.Time
}

// PaymentLabel ties a gateway payment to this deal.
func (d *Deal) PaymentLabel() string {
	return fmt.Sprintf("deal_%d", d.ID)
}
