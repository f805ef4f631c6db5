package yoomoney

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"tonhunter/internal/domain"
	"tonhunter/pkg/errcodes"
	"tonhunter/pkg/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	quickpayPath         = "/quickpay/confirm.xml"
	operationHistoryPath = "/api/operation-history"

	operationStatusSuccess = "success"
)

// staticToken satisfies the httpx authenticator for a pre-issued token.
type staticToken string

func (t staticToken) Authenticate(context.Context) error { return nil }
func (t staticToken) BearerToken() string                { return string(t) }

// Client talks to the YooMoney wallet API.
type Client struct {
	baseURL    string
	receiver   string
	httpClient *http.Client
}

func NewClient(
	baseURL string,
	receiver string,
	token string,
	requestTimeout time.Duration,
	options ...httpx.Option,
) *Client {
	logging := httpx.NewLoggingRoundTripper(http.DefaultTransport, options...)

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		receiver: receiver,
		httpClient: &http.Client{
			Transport: httpx.NewAuthBearerRoundTripper(logging, staticToken(token)),
			Timeout:   requestTimeout,
		},
	}
}

// PaymentLink builds a quickpay checkout URL for the given label.
func (c *Client) PaymentLink(label string, amount decimal.Decimal, title string) string {
	params := url.Values{}
	params.Set("receiver", c.receiver)
	params.Set("quickpay-form", "shop")
	params.Set("targets", title)
	params.Set("paymentType", "PC")
	params.Set("sum", amount.StringFixed(2))
	params.Set("label", label)

	return c.baseURL + quickpayPath + "?" + params.Encode()
}

type operationHistoryResponse struct {
	Error      string `json:"error"`
	Operations []struct {
		OperationID string `json:"operation_id"`
		Status      string `json:"status"`
		Amount      string `json:"amount"`
		Label       string `json:"label"`
	} `json:"operations"`
}

// IsPaid reports whether a successful operation with the label exists.
func (c *Client) IsPaid(ctx context.Context, label string) (bool, error) {
	form := url.Values{}
	form.Set("label", label)
	form.Set("records", "10")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+operationHistoryPath,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return false, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("httpClient.Do: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("operation-history: unexpected status %d", resp.StatusCode)
	}

	var history operationHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return false, fmt.Errorf("json.Decode: %w", err)
	}

	if history.Error != "" {
		return false, fmt.Errorf("operation-history: %s", history.Error)
	}

	for _, operation := range history.Operations {
		if operation.Label == label && operation.Status == operationStatusSuccess {
			return true, nil
		}
	}

	return false, nil
}

// Refund acknowledges a refund request. The wallet API has no automated
// refund operation, so the transfer itself is done by the operator; the
// acknowledgement only verifies the original payment exists.
func (c *Client) Refund(ctx context.Context, label string, amount decimal.Decimal) error {
	paid, err := c.IsPaid(ctx, label)
	if err != nil {
		return fmt.Errorf("IsPaid: %w", err)
	}

	if !paid {
		return domain.NewError(errcodes.PaymentPending, "no successful payment to refund")
	}

	logger(ctx).Warn("manual refund required",
		"label", label,
		"amount_rub", amount.StringFixed(2),
	)

	return nil
}
