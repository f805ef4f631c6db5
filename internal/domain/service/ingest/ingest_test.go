package ingest_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/service/ingest"
	"tonhunter/internal/domain/service/scamcheck"
	"tonhunter/pkg/errcodes"
)

type fakeSource struct {
	listings []entity.Listing
}

func (s *fakeSource) Search(_ context.Context, query string) ([]entity.Listing, error) {
	// Return everything on the first query only, to keep counts simple.
	if query == "продам ton" {
		return s.listings, nil
	}

	return nil, nil
}

type fakeOracle struct {
	price decimal.Decimal
}

func (o *fakeOracle) TonPriceRub(context.Context) (decimal.Decimal, error) {
	return o.price, nil
}

type fakeDealCreator struct {
	nextID  int64
	created []entity.Listing
}

func (c *fakeDealCreator) CreateFromListing(_ context.Context, listing entity.Listing) (*entity.Deal, error) {
	for _, prev := range c.created {
		if prev.AvitoURL == listing.AvitoURL {
			return nil, domain.NewError(errcodes.ListingAlreadySeen, "listing already tracked")
		}
	}

	c.created = append(c.created, listing)
	c.nextID++

	return &entity.Deal{
		ID:        c.nextID,
		AvitoURL:  listing.AvitoURL,
		TonAmount: listing.TonAmount,
		PriceRub:  listing.PriceRub,
		Status:    entity.StatusUnclaimed,
	}, nil
}

type memDeduper struct {
	seen map[string]bool
}

func (d *memDeduper) Seen(_ context.Context, url string) (bool, error) {
	return d.seen[url], nil
}

func (d *memDeduper) MarkSeen(_ context.Context, url string) error {
	d.seen[url] = true
	return nil
}

type fakeNotifier struct {
	broadcasts []int64
	risks      map[string]scamcheck.Report
}

func (n *fakeNotifier) BroadcastDeal(_ context.Context, deal *entity.Deal, _ decimal.Decimal, risk scamcheck.Report) error {
	n.broadcasts = append(n.broadcasts, deal.ID)

	if n.risks == nil {
		n.risks = map[string]scamcheck.Report{}
	}
	n.risks[deal.AvitoURL] = risk

	return nil
}

func listing(url, title string, ton, priceRub int64) entity.Listing {
	return entity.Listing{
		AvitoURL:  url,
		Title:     title,
		TonAmount: decimal.NewFromInt(ton),
		PriceRub:  decimal.NewFromInt(priceRub),
	}
}

func TestScan(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	source := &fakeSource{listings: []entity.Listing{
		// 200 rub per TON against a 300 rub market: 50% margin, accepted.
		listing("https://avito.ru/1", "Продам 50 TON дешево, перевод после оплаты", 50, 10000),
		// Too small a lot.
		listing("https://avito.ru/2", "Продам 5 TON дешево", 5, 900),
		// 296 rub per TON: margin below 4%.
		listing("https://avito.ru/3", "Продам 50 TON по рынку", 50, 14800),
		// Scam text still becomes a deal, with a warning attached.
		listing("https://avito.ru/4", "Срочно продам TON только предоплата перевод вперед быстрая сделка", 50, 10000),
		// 100 rub per TON: more than 50% off market, annotated as an anomaly.
		listing("https://avito.ru/5", "Продам 50 TON срочно нужны деньги", 50, 5000),
	}}

	creator := &fakeDealCreator{}
	notifier := &fakeNotifier{}
	deduper := &memDeduper{seen: map[string]bool{}}

	svc := ingest.NewService(source, &fakeOracle{price: decimal.NewFromInt(300)}, creator, deduper, notifier)

	result, err := svc.Scan(ctx)
	rq.NoError(err)
	rq.Equal(5, result.Scanned)
	rq.Equal(3, result.Created)
	rq.Equal(2, result.Rejected)
	rq.Equal(0, result.Errors)

	rq.Len(creator.created, 3)
	rq.Equal("https://avito.ru/1", creator.created[0].AvitoURL)
	rq.True(creator.created[0].MarginPct.Equal(decimal.NewFromInt(50)))

	rq.Len(notifier.broadcasts, 3)

	// The heuristics annotate the broadcast instead of blocking the deal.
	rq.False(notifier.risks["https://avito.ru/1"].Suspicious)
	rq.True(notifier.risks["https://avito.ru/4"].Suspicious)
	rq.NotEmpty(notifier.risks["https://avito.ru/4"].Flags)
	rq.True(notifier.risks["https://avito.ru/5"].PriceAnomaly)

	// A second pass sees nothing new.
	result, err = svc.Scan(ctx)
	rq.NoError(err)
	rq.Equal(0, result.Created)
	rq.Len(notifier.broadcasts, 3)
}

func TestScanBlacklistedSeller(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	bad := listing("https://avito.ru/1", "Продам 50 TON дешево, перевод после оплаты", 50, 10000)
	bad.SellerName = "кидала 2000"

	source := &fakeSource{listings: []entity.Listing{bad}}
	creator := &fakeDealCreator{}
	notifier := &fakeNotifier{}
	deduper := &memDeduper{seen: map[string]bool{}}

	svc := ingest.NewService(source, &fakeOracle{price: decimal.NewFromInt(300)}, creator, deduper, notifier)

	result, err := svc.Scan(ctx)
	rq.NoError(err)
	rq.Equal(0, result.Created)
	rq.Equal(1, result.Rejected)
	rq.Empty(creator.created)
}
