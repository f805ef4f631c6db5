package avito

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tonhunter/internal/domain/entity"
)

const (
	searchPath = "/web/1"
	siteURL    = "https://www.avito.ru"

	// itemsPerQuery caps how many listings one query may yield.
	itemsPerQuery = 5

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// defaultSellerName is used until seller extraction is implemented.
	// TODO: pull the real seller name from the item page.
	defaultSellerName = "Avito Seller"
)

// itemPattern matches listing cards in the search markup: href, title
// and price attributes in that order.
var itemPattern = regexp.MustCompile(`data-marker="item"\s+[^>]*href="([^"]+)"[^>]*title="([^"]+)"[^>]*data-price="([^"]+)"`) //nolint:gochecknoglobals

// tonPattern extracts the TON volume from a lowercased listing title.
var tonPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(ton|тон|toncoin)`) //nolint:gochecknoglobals

// itemIDPattern pulls the numeric item identifier off a listing URL
// slug, e.g. "/moskva/tovary/prodam_ton_1234567890".
var itemIDPattern = regexp.MustCompile(`[_-](\d+)$`) //nolint:gochecknoglobals

// Parser scrapes marketplace search pages for TON listings.
type Parser struct {
	baseURL    string
	httpClient *http.Client
}

func NewParser(baseURL string, requestTimeout time.Duration) *Parser {
	return &Parser{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Search fetches one search page and returns the listings it could
// parse. Items without a recognizable TON volume in the title are
// skipped.
func (p *Parser) Search(ctx context.Context, query string) ([]entity.Listing, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("cd", "1")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		p.baseURL+searchPath+"?"+params.Encode(),
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Do: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	return p.parse(ctx, string(body)), nil
}

func (p *Parser) parse(ctx context.Context, body string) []entity.Listing {
	matches := itemPattern.FindAllStringSubmatch(body, -1)
	if len(matches) > itemsPerQuery {
		matches = matches[:itemsPerQuery]
	}

	listings := make([]entity.Listing, 0, len(matches))

	for _, match := range matches {
		itemURL, title, priceStr := match[1], match[2], match[3]

		listing, ok := p.buildListing(itemURL, title, priceStr)
		if !ok {
			continue
		}

		listings = append(listings, listing)
	}

	logger(ctx).Debug("search page parsed", "items", len(matches), "listings", len(listings))

	return listings
}

func (p *Parser) buildListing(itemURL, title, priceStr string) (entity.Listing, bool) {
	priceStr = strings.NewReplacer(" ", "", " ", "", "₽", "").Replace(priceStr)

	priceRub, err := decimal.NewFromString(priceStr)
	if err != nil || priceRub.Sign() <= 0 {
		return entity.Listing{}, false
	}

	tonMatch := tonPattern.FindStringSubmatch(strings.ToLower(title))
	if tonMatch == nil {
		return entity.Listing{}, false
	}

	tonAmount, err := decimal.NewFromString(strings.ReplaceAll(tonMatch[1], ",", "."))
	if err != nil || tonAmount.Sign() <= 0 {
		return entity.Listing{}, false
	}

	return entity.Listing{
		AvitoURL:   siteURL + itemURL,
		ItemID:     extractItemID(itemURL),
		Title:      title,
		SellerName: defaultSellerName,
		TonAmount:  tonAmount,
		PriceRub:   priceRub,
		FoundAt:    time.Now(),
	}, true
}

// extractItemID returns the numeric identifier at the end of the URL
// slug, or empty when there is none.
func extractItemID(itemURL string) string {
	if i := strings.IndexByte(itemURL, '?'); i >= 0 {
		itemURL = itemURL[:i]
	}

	match := itemIDPattern.FindStringSubmatch(itemURL)
	if match == nil {
		return ""
	}

	return match[1]
}
