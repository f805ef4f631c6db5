package scamcheck

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	redFlagScore    = 15.0
	suspiciousScore = 10.0
	shortTextScore  = 5.0
	noSubjectScore  = 10.0
	capsScore       = 20.0
	emojiSpamScore  = 15.0

	capsRatioLimit  = 0.5
	emojiCountLimit = 10
	shortTextLen    = 50

	// SuspiciousThreshold is the risk score at which a listing is
	// considered suspicious.
	SuspiciousThreshold = 40.0

	// anomalyDeviationPct marks the price deviation treated as a scam signal.
	anomalyDeviationPct = 50.0
	warnDeviationPct    = 30.0
)

// Known bad seller names and name fragments.
var blacklist = []string{ //nolint:gochecknoglobals
	"scam_user1", "scam_user2", "мошенник", "развод",
	"обман", "кидала", "не платит",
}

var redFlags = []*regexp.Regexp{ //nolint:gochecknoglobals
	regexp.MustCompile(`только предоплата`),
	regexp.MustCompile(`перевод\s+вперед`),
	regexp.MustCompile(`срочно\s+продам`),
	regexp.MustCompile(`очень\s+выгодно`),
	regexp.MustCompile(`гарантия\s+100%`),
	regexp.MustCompile(`без\s+посредников`),
	regexp.MustCompile(`только\s+наличные`),
	regexp.MustCompile(`встреча\s+обязательна`),
	regexp.MustCompile(`можно\s+без\s+проверки`),
	regexp.MustCompile(`быстрая\s+сделка`),
}

var suspiciousPatterns = []*regexp.Regexp{ //nolint:gochecknoglobals
	regexp.MustCompile(`\d{10,}`),
	regexp.MustCompile(`telegram[:\s]+@\w+`),
	regexp.MustCompile(`whatsapp`),
	regexp.MustCompile(`viber`),
}

var (
	subjectPattern = regexp.MustCompile(`(ton|тон|toncoin)`)  //nolint:gochecknoglobals
	emojiPattern   = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]`) //nolint:gochecknoglobals
)

// TextReport is the outcome of analyzing a listing's text.
type TextReport struct {
	Suspicious bool
	RiskScore  float64
	Flags      []string
}

// AnalyzeText scores a listing description for fraud signals.
func AnalyzeText(text string) TextReport {
	if text == "" {
		return TextReport{}
	}

	textLower := strings.ToLower(text)

	var (
		score float64
		flags []string
	)

	for _, flag := range redFlags {
		if flag.MatchString(textLower) {
			flags = append(flags, flag.String())
			score += redFlagScore
		}
	}

	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(textLower) {
			score += suspiciousScore
		}
	}

	if len(text) < shortTextLen {
		score += shortTextScore
	}

	if !subjectPattern.MatchString(textLower) {
		score += noSubjectScore
	}

	if capsRatio(text) > capsRatioLimit {
		score += capsScore
		flags = append(flags, "too many capital letters")
	}

	if len(emojiPattern.FindAllString(text, -1)) > emojiCountLimit {
		score += emojiSpamScore
		flags = append(flags, "emoji spam")
	}

	score = math.Min(score, 100)

	return TextReport{
		Suspicious: score >= SuspiciousThreshold,
		RiskScore:  score,
		Flags:      flags,
	}
}

func capsRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}

	var upper int

	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
	}

	return float64(upper) / float64(len(runes))
}

// SellerBlacklisted checks the seller against known bad names.
func SellerBlacklisted(sellerName string) bool {
	if sellerName == "" {
		return false
	}

	sellerLower := strings.ToLower(sellerName)

	for _, entry := range blacklist {
		if strings.Contains(sellerLower, entry) {
			return true
		}
	}

	return false
}

// PriceReport is the outcome of checking a price against the market.
type PriceReport struct {
	Anomaly      bool
	DeviationPct float64
	Warn         bool
}

// Report combines the text and price heuristics for one listing. It is
// advisory: consumers attach it to notifications, it never blocks a
// deal.
type Report struct {
	RiskScore    float64
	Flags        []string
	DeviationPct float64
	PriceAnomaly bool
	Suspicious   bool
}

// Assess runs every heuristic over a listing.
func Assess(title string, pricePerTon, marketPrice decimal.Decimal) Report {
	text := AnalyzeText(title)
	price := CheckPrice(pricePerTon, marketPrice)

	flags := text.Flags
	if price.Anomaly {
		flags = append(flags, "цена сильно ниже рынка")
	}

	return Report{
		RiskScore:    text.RiskScore,
		Flags:        flags,
		DeviationPct: price.DeviationPct,
		PriceAnomaly: price.Anomaly,
		Suspicious:   text.Suspicious || price.Anomaly,
	}
}

// CheckPrice compares the seller's per-TON price to the market price.
func CheckPrice(pricePerTon, marketPrice decimal.Decimal) PriceReport {
	if marketPrice.IsZero() {
		return PriceReport{}
	}

	deviation, _ := pricePerTon.Sub(marketPrice).
		Div(marketPrice).
		Mul(decimal.NewFromInt(100)).
		Abs().
		Float64()

	return PriceReport{
		Anomaly:      deviation > anomalyDeviationPct,
		DeviationPct: deviation,
		Warn:         deviation > warnDeviationPct,
	}
}
