package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	tickersPath = "/v5/market/tickers"
	symbol      = "TONUSDT"

	priceCacheKey = "ton_price_rub"
	priceCacheTTL = 5 * time.Minute

	// usdRubRate is a rough conversion used on top of the USDT price.
	usdRubRate = 97.0
	// floorPriceRub is the lowest price the oracle will ever report.
	floorPriceRub = 80.0
	// fallbackPriceRub is used when the exchange is unreachable and
	// nothing is cached.
	fallbackPriceRub = 87.0
)

// PriceOracle quotes the TON/RUB market price off the Bybit spot ticker.
type PriceOracle struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewPriceOracle(baseURL string, requestTimeout time.Duration) *PriceOracle {
	return &PriceOracle{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		cache: cache.New(priceCacheTTL, priceCacheTTL),
	}
}

type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	} `json:"result"`
}

// TonPriceRub returns the current TON price in rubles. The quote is
// cached for five minutes; on exchange failure the last cached value is
// reused, then a fixed fallback.
func (o *PriceOracle) TonPriceRub(ctx context.Context) (decimal.Decimal, error) {
	if cached, found := o.cache.Get(priceCacheKey); found {
		return cached.(decimal.Decimal), nil //nolint:forcetypeassert
	}

	price, err := o.fetch(ctx)
	if err != nil {
		logger(ctx).Error("ton price fetch failed, using fallback", "error", err)

		return decimal.NewFromFloat(fallbackPriceRub), nil
	}

	o.cache.Set(priceCacheKey, price, cache.DefaultExpiration)

	logger(ctx).Info("ton price updated", "price_rub", price.String())

	return price, nil
}

func (o *PriceOracle) fetch(ctx context.Context) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", symbol)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		o.baseURL+tickersPath+"?"+params.Encode(),
		http.NoBody,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("httpClient.Do: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("tickers: unexpected status %d", resp.StatusCode)
	}

	var tickers tickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return decimal.Zero, fmt.Errorf("json.Decode: %w", err)
	}

	if tickers.RetCode != 0 {
		return decimal.Zero, fmt.Errorf("tickers: %s", tickers.RetMsg)
	}

	if len(tickers.Result.List) == 0 {
		return decimal.Zero, fmt.Errorf("tickers: empty list for %s", symbol)
	}

	usdt, err := decimal.NewFromString(tickers.Result.List[0].LastPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimal.NewFromString: %w", err)
	}

	price := usdt.Mul(decimal.NewFromFloat(usdRubRate))

	floor := decimal.NewFromFloat(floorPriceRub)
	if price.LessThan(floor) {
		price = floor
	}

	return price.Round(2), nil
}
