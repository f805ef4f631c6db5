package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/server"
	"tonhunter/pkg/errcodes"
	"tonhunter/pkg/rest"
	"tonhunter/pkg/tests"
)

type fakeDealService struct {
	deals map[int64]*entity.Deal
}

func (s *fakeDealService) Get(_ context.Context, dealID int64) (*entity.Deal, error) {
	deal, ok := s.deals[dealID]
	if !ok {
		return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
	}

	return deal, nil
}

func (s *fakeDealService) ListRecent(_ context.Context, _ int) ([]*entity.Deal, error) {
	out := make([]*entity.Deal, 0, len(s.deals))
	for _, deal := range s.deals {
		out = append(out, deal)
	}

	return out, nil
}

func (s *fakeDealService) Stats(_ context.Context) (*entity.DealStats, error) {
	return &entity.DealStats{
		TotalDeals:     len(s.deals),
		SettledDeals:   1,
		TotalVolumeTon: decimal.NewFromInt(50),
		TotalVolumeRub: decimal.NewFromInt(10000),
	}, nil
}

func newTestServer() (*httptest.Server, *fakeDealService) {
	svc := &fakeDealService{deals: map[int64]*entity.Deal{
		1: {
			ID:        1,
			AvitoURL:  "https://www.avito.ru/item-1",
			TonAmount: decimal.NewFromInt(50),
			PriceRub:  decimal.NewFromInt(10000),
			TotalRub:  decimal.NewFromInt(10190),
			Status:    entity.StatusUnclaimed,
			CreatedAt: time.Now(),
		},
	}}

	router := chi.NewRouter()
	server.NewServer(server.NewDealServer(svc)).RegisterRoutes(router)

	return httptest.NewServer(router), svc
}

func TestGetDeals(t *testing.T) {
	rq := require.New(t)

	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/deals")
	rq.NoError(err)

	defer resp.Body.Close()

	rq.Equal(http.StatusOK, resp.StatusCode)

	var list rest.DealList
	rq.NoError(json.NewDecoder(resp.Body).Decode(&list))
	rq.Equal(1, list.Total)
	rq.Equal("50", list.Deals[0].TonAmount)
	rq.Equal("unclaimed", list.Deals[0].Status)
}

func TestGetDeal(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	ts, _ := newTestServer()
	defer ts.Close()

	client := tests.NewAPIClient(ts.URL, ts.Client())

	var deal rest.Deal

	resp, err := client.Get(ctx, "/v1/deals/1", http.Header{}, &deal, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal(int64(1), deal.ID)
	rq.Equal("10190", deal.TotalRub)
}

func TestGetDealNotFound(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	ts, _ := newTestServer()
	defer ts.Close()

	client := tests.NewAPIClient(ts.URL, ts.Client())

	var restErr rest.Error

	resp, err := client.Get(ctx, "/v1/deals/999", http.Header{}, nil, &restErr)
	rq.NoError(err)
	rq.Equal(http.StatusNotFound, resp.StatusCode)
	rq.Equal(rest.ErrorCode("DealNotFound"), restErr.Code)
}

func TestGetStats(t *testing.T) {
	rq := require.New(t)

	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/stats")
	rq.NoError(err)

	defer resp.Body.Close()

	rq.Equal(http.StatusOK, resp.StatusCode)

	var stats rest.Stats
	rq.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	rq.Equal(1, stats.TotalDeals)
	rq.Equal("10000", stats.TotalVolumeRub)
}