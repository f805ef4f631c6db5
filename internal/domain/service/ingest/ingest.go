package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/service/scamcheck"
	"tonhunter/pkg/errcodes"
)

const (
	seenCacheTTL = time.Hour

	defaultMinTonAmount = 10.0
	defaultMinMarginPct = 4.0
)

// Search queries sent to the marketplace on every scan cycle.
var searchQueries = []string{ //nolint:gochecknoglobals
	"продам ton", "ton за сбп", "ton за тинькофф",
	"toncoin", "ton usdt", "продаю ton",
}

type ListingSource interface {
	Search(ctx context.Context, query string) ([]entity.Listing, error)
}

type PriceOracle interface {
	TonPriceRub(ctx context.Context) (decimal.Decimal, error)
}

type DealCreator interface {
	CreateFromListing(ctx context.Context, listing entity.Listing) (*entity.Deal, error)
}

// Deduper remembers listing URLs across restarts.
type Deduper interface {
	Seen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, url string) error
}

type Notifier interface {
	BroadcastDeal(ctx context.Context, deal *entity.Deal, marketPrice decimal.Decimal, risk scamcheck.Report) error
}

type ScanResult struct {
	Scanned  int
	Created  int
	Rejected int
	Errors   int
}

type Service struct {
	source   ListingSource
	oracle   PriceOracle
	deals    DealCreator
	deduper  Deduper
	notifier Notifier

	minTonAmount decimal.Decimal
	minMarginPct decimal.Decimal

	// seenCache keeps recently processed URLs out of redis round trips.
	seenCache *cache.Cache
}

func NewService(
	source ListingSource,
	oracle PriceOracle,
	deals DealCreator,
	deduper Deduper,
	notifier Notifier,
) *Service {
	return &Service{
		source:       source,
		oracle:       oracle,
		deals:        deals,
		deduper:      deduper,
		notifier:     notifier,
		minTonAmount: decimal.NewFromFloat(defaultMinTonAmount),
		minMarginPct: decimal.NewFromFloat(defaultMinMarginPct),
		seenCache:    cache.New(seenCacheTTL, seenCacheTTL),
	}
}

func (s *Service) WithMinTonAmount(amount decimal.Decimal) *Service {
	s.minTonAmount = amount
	return s
}

func (s *Service) WithMinMargin(pct decimal.Decimal) *Service {
	s.minMarginPct = pct
	return s
}

// Scan runs one full pass over the marketplace queries.
func (s *Service) Scan(ctx context.Context) (ScanResult, error) {
	marketPrice, err := s.oracle.TonPriceRub(ctx)
	if err != nil {
		return ScanResult{}, err
	}

	var result ScanResult

	for _, query := range searchQueries {
		listings, err := s.source.Search(ctx, query)
		if err != nil {
			logger(ctx).Error("marketplace search failed", "query", query, "error", err)
			result.Errors++

			continue
		}

		for _, listing := range listings {
			result.Scanned++

			created, err := s.processListing(ctx, listing, marketPrice)
			if err != nil {
				logger(ctx).Error("listing rejected with error", "url", listing.AvitoURL, "error", err)
				result.Errors++

				continue
			}

			if created {
				result.Created++
			} else {
				result.Rejected++
			}
		}
	}

	logger(ctx).Info("scan cycle completed",
		"scanned", result.Scanned,
		"created", result.Created,
		"rejected", result.Rejected,
		"errors", result.Errors,
	)

	return result, nil
}

func (s *Service) processListing(ctx context.Context, listing entity.Listing, marketPrice decimal.Decimal) (bool, error) {
	if _, found := s.seenCache.Get(listing.AvitoURL); found {
		return false, nil
	}

	seen, err := s.deduper.Seen(ctx, listing.AvitoURL)
	if err != nil {
		return false, err
	}

	if seen {
		s.seenCache.Set(listing.AvitoURL, true, cache.DefaultExpiration)
		return false, nil
	}

	if !s.vet(ctx, &listing, marketPrice) {
		s.remember(ctx, listing.AvitoURL)
		return false, nil
	}

	deal, err := s.deals.CreateFromListing(ctx, listing)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == errcodes.ListingAlreadySeen {
			s.remember(ctx, listing.AvitoURL)
			return false, nil
		}

		return false, err
	}

	s.remember(ctx, listing.AvitoURL)

	// The heuristics only annotate the announcement, a risky listing
	// still becomes a deal.
	risk := scamcheck.Assess(
		listing.Title,
		listing.PriceRub.Div(listing.TonAmount),
		marketPrice,
	)

	if risk.Suspicious {
		logger(ctx).Warn("listing flagged as risky",
			"url", listing.AvitoURL,
			"risk", risk.RiskScore,
			"flags", risk.Flags,
		)
	}

	if err := s.notifier.BroadcastDeal(ctx, deal, marketPrice, risk); err != nil {
		logger(ctx).Error("notifier.BroadcastDeal", "deal_id", deal.ID, "error", err)
	}

	return true, nil
}

func (s *Service) vet(ctx context.Context, listing *entity.Listing, marketPrice decimal.Decimal) bool {
	if listing.TonAmount.LessThan(s.minTonAmount) {
		return false
	}

	if listing.TonAmount.IsZero() || listing.PriceRub.IsZero() {
		return false
	}

	pricePerTon := listing.PriceRub.Div(listing.TonAmount)

	// margin = how much cheaper than market the offer is, relative to
	// the offer price.
	margin := marketPrice.Sub(pricePerTon).
		Div(pricePerTon).
		Mul(decimal.NewFromInt(100))

	if margin.LessThan(s.minMarginPct) {
		return false
	}

	if scamcheck.SellerBlacklisted(listing.SellerName) {
		logger(ctx).Warn("seller blacklisted", "seller", listing.SellerName, "url", listing.AvitoURL)
		return false
	}

	listing.MarginPct = margin.Round(1)

	return true
}

func (s *Service) remember(ctx context.Context, url string) {
	s.seenCache.Set(url, true, cache.DefaultExpiration)

	if err := s.deduper.MarkSeen(ctx, url); err != nil {
		logger(ctx).Error("deduper.MarkSeen", "url", url, "error", err)
	}
}
