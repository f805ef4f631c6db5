package market_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tonhunter/internal/infrastructure/market"
)

func TestTonPriceRub(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		require.Equal(t, "/v5/market/tickers", r.URL.Path)
		require.Equal(t, "spot", r.URL.Query().Get("category"))
		require.Equal(t, "TONUSDT", r.URL.Query().Get("symbol"))

		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[{"symbol":"TONUSDT","lastPrice":"3.10"}]}}`)) //nolint:errcheck
	}))
	defer server.Close()

	oracle := market.NewPriceOracle(server.URL, time.Second)

	price, err := oracle.TonPriceRub(ctx)
	rq.NoError(err)
	// 3.10 USDT * 97.
	rq.True(price.Equal(decimal.NewFromFloat(300.7)), "got %s", price)

	// Second call hits the cache.
	_, err = oracle.TonPriceRub(ctx)
	rq.NoError(err)
	rq.Equal(int32(1), calls.Load())
}

func TestTonPriceRubFloor(t *testing.T) {
	rq := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[{"symbol":"TONUSDT","lastPrice":"0.50"}]}}`)) //nolint:errcheck
	}))
	defer server.Close()

	oracle := market.NewPriceOracle(server.URL, time.Second)

	price, err := oracle.TonPriceRub(context.Background())
	rq.NoError(err)
	rq.True(price.Equal(decimal.NewFromInt(80)), "got %s", price)
}

func TestTonPriceRubFallback(t *testing.T) {
	rq := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	oracle := market.NewPriceOracle(server.URL, time.Second)

	price, err := oracle.TonPriceRub(context.Background())
	rq.NoError(err)
	rq.True(price.Equal(decimal.NewFromInt(87)), "got %s", price)
}
