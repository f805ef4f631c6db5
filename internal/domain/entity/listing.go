package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a marketplace offer found by the scanner, not yet a deal.
type Listing struct {
	AvitoURL string
	// ItemID is the marketplace item identifier parsed from the URL,
	// empty when absent.
	ItemID     string
	Title      string
	SellerName string
	TonAmount  decimal.Decimal
	PriceRub   decimal.Decimal
	// MarginPct is how far below market the offer is priced.
	MarginPct decimal.Decimal
	FoundAt   time.Time
}
