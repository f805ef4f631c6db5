package ton_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/value"
	"tonhunter/internal/infrastructure/ton"
	"tonhunter/pkg/errcodes"
)

func TestWalletUninitialized(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	w := ton.NewWallet("", "https://ton.org/global.config.json")

	addr, err := value.NewTonAddress("EQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG")
	rq.NoError(err)

	_, err = w.Address(ctx)
	requireWalletUninitialized(t, err)

	_, err = w.Balance(ctx)
	requireWalletUninitialized(t, err)

	_, err = w.Incoming(ctx, 30)
	requireWalletUninitialized(t, err)

	_, err = w.Send(ctx, addr, decimal.NewFromInt(1), "payout")
	requireWalletUninitialized(t, err)
}

func TestWalletConnectFailureIsRetried(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	var hits int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte("not a liteserver config")) //nolint:errcheck
	}))
	defer server.Close()

	w := ton.NewWallet(
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		server.URL,
	)

	// A liteserver problem is transient: not WalletUninitialized, and
	// the next call connects again instead of replaying a cached error.
	_, err := w.Balance(ctx)
	requireLedgerUnavailable(t, err)

	_, err = w.Incoming(ctx, 30)
	requireLedgerUnavailable(t, err)

	rq.Equal(2, hits)
}

func requireLedgerUnavailable(t *testing.T, err error) {
	t.Helper()

	rq := require.New(t)
	rq.Error(err)

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.LedgerUnavailable, code)
}

func requireWalletUninitialized(t *testing.T, err error) {
	t.Helper()

	rq := require.New(t)
	rq.Error(err)

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.WalletUninitialized, code)
}
