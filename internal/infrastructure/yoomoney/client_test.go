package yoomoney_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tonhunter/internal/domain"
	"tonhunter/internal/infrastructure/yoomoney"
	"tonhunter/pkg/errcodes"
)

func newTestServer(t *testing.T, operationsJSON string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/operation-history", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		require.NotEmpty(t, r.PostForm.Get("label"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(operationsJSON)) //nolint:errcheck
	}))
}

func TestPaymentLink(t *testing.T) {
	rq := require.New(t)

	client := yoomoney.NewClient("https://yoomoney.ru", "410011234567890", "test-token", time.Second)

	link := client.PaymentLink("deal_7", decimal.NewFromFloat(10190), "TON deal #7")

	parsed, err := url.Parse(link)
	rq.NoError(err)
	rq.Equal("/quickpay/confirm.xml", parsed.Path)

	query := parsed.Query()
	rq.Equal("410011234567890", query.Get("receiver"))
	rq.Equal("shop", query.Get("quickpay-form"))
	rq.Equal("10190.00", query.Get("sum"))
	rq.Equal("deal_7", query.Get("label"))
	rq.Equal("PC", query.Get("paymentType"))
}

func TestIsPaid(t *testing.T) {
	testCases := []struct {
		name string
		body string
		paid bool
	}{
		{
			name: "Successful operation",
			body: `{"operations":[{"operation_id":"op-1","status":"success","amount":"10190.00","label":"deal_7"}]}`,
			paid: true,
		},
		{
			name: "Operation still in progress",
			body: `{"operations":[{"operation_id":"op-1","status":"in_progress","amount":"10190.00","label":"deal_7"}]}`,
			paid: false,
		},
		{
			name: "Different label ignored",
			body: `{"operations":[{"operation_id":"op-1","status":"success","amount":"500.00","label":"deal_8"}]}`,
			paid: false,
		},
		{
			name: "No operations",
			body: `{"operations":[]}`,
			paid: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			server := newTestServer(t, tc.body)
			defer server.Close()

			client := yoomoney.NewClient(server.URL, "wallet", "test-token", time.Second)

			paid, err := client.IsPaid(context.Background(), "deal_7")
			rq.NoError(err)
			rq.Equal(tc.paid, paid)
		})
	}
}

func TestIsPaidAPIError(t *testing.T) {
	rq := require.New(t)

	server := newTestServer(t, `{"error":"illegal_param_label"}`)
	defer server.Close()

	client := yoomoney.NewClient(server.URL, "wallet", "test-token", time.Second)

	_, err := client.IsPaid(context.Background(), "deal_7")
	rq.Error(err)
	rq.Contains(err.Error(), "illegal_param_label")
}

func TestRefundRequiresPayment(t *testing.T) {
	rq := require.New(t)

	server := newTestServer(t, `{"operations":[]}`)
	defer server.Close()

	client := yoomoney.NewClient(server.URL, "wallet", "test-token", time.Second)

	err := client.Refund(context.Background(), "deal_7", decimal.NewFromInt(10190))

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.PaymentPending, code)
}

func TestRefundAcknowledged(t *testing.T) {
	rq := require.New(t)

	server := newTestServer(t, `{"operations":[{"operation_id":"op-1","status":"success","amount":"10190.00","label":"deal_7"}]}`)
	defer server.Close()

	client := yoomoney.NewClient(server.URL, "wallet", "test-token", time.Second)

	rq.NoError(client.Refund(context.Background(), "deal_7", decimal.NewFromInt(10190)))
}
