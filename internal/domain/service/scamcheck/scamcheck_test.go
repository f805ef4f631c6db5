package scamcheck_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tonhunter/internal/domain/service/scamcheck"
)

func TestAnalyzeText(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		suspicious bool
	}{
		{
			name:       "Clean listing",
			text:       "Продам 50 TON, оплата через безопасную сделку, цена по рынку, пишите в личные сообщения",
			suspicious: false,
		},
		{
			name:       "Stacked red flags",
			text:       "Срочно продам TON! Только предоплата, перевод вперед, быстрая сделка без посредников",
			suspicious: true,
		},
		{
			name:       "Caps lock with red flags",
			text:       "СРОЧНО ПРОДАМ TON ТОЛЬКО ПРЕДОПЛАТА ПИШИТЕ БЫСТРЕЕ",
			suspicious: true,
		},
		{
			name:       "Emoji spam alone is not enough",
			text:       "Продам TON " + strings.Repeat("\U0001F525", 12) + " лучшая цена на рынке, пишите в личные сообщения",
			suspicious: false,
		},
		{
			name:       "Messenger redirect alone is not enough",
			text:       "Продам 20 TON по рыночной цене, связь только здесь, telegram: @seller не использую",
			suspicious: false,
		},
		{
			name:       "Empty",
			text:       "",
			suspicious: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			report := scamcheck.AnalyzeText(tc.text)

			rq.Equal(tc.suspicious, report.Suspicious, "score %v flags %v", report.RiskScore, report.Flags)
			rq.LessOrEqual(report.RiskScore, 100.0)
		})
	}
}

func TestAnalyzeTextScoreCapped(t *testing.T) {
	rq := require.New(t)

	text := "ТОЛЬКО ПРЕДОПЛАТА ПЕРЕВОД ВПЕРЕД СРОЧНО ПРОДАМ ОЧЕНЬ ВЫГОДНО БЕЗ ПОСРЕДНИКОВ" +
		" ТОЛЬКО НАЛИЧНЫЕ БЫСТРАЯ СДЕЛКА WHATSAPP VIBER 12345678901 " + strings.Repeat("\U0001F911", 15)

	report := scamcheck.AnalyzeText(strings.ToLower(text) + " " + text)

	rq.True(report.Suspicious)
	rq.Equal(100.0, report.RiskScore)
}

func TestSellerBlacklisted(t *testing.T) {
	rq := require.New(t)

	rq.True(scamcheck.SellerBlacklisted("Известный КИДАЛА 777"))
	rq.True(scamcheck.SellerBlacklisted("scam_user1"))
	rq.False(scamcheck.SellerBlacklisted("Иван Петров"))
	rq.False(scamcheck.SellerBlacklisted(""))
}

func TestCheckPrice(t *testing.T) {
	testCases := []struct {
		name    string
		price   decimal.Decimal
		market  decimal.Decimal
		anomaly bool
		warn    bool
	}{
		{
			name:   "At market",
			price:  decimal.NewFromInt(300),
			market: decimal.NewFromInt(300),
		},
		{
			name:   "Mild discount",
			price:  decimal.NewFromInt(280),
			market: decimal.NewFromInt(300),
		},
		{
			name:   "Large deviation warns",
			price:  decimal.NewFromInt(195),
			market: decimal.NewFromInt(300),
			warn:   true,
		},
		{
			name:    "Half price is an anomaly",
			price:   decimal.NewFromInt(120),
			market:  decimal.NewFromInt(300),
			anomaly: true,
			warn:    true,
		},
		{
			name:    "Overpriced is an anomaly too",
			price:   decimal.NewFromInt(500),
			market:  decimal.NewFromInt(300),
			anomaly: true,
			warn:    true,
		},
		{
			name:   "Zero market price",
			price:  decimal.NewFromInt(300),
			market: decimal.Zero,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			report := scamcheck.CheckPrice(tc.price, tc.market)

			rq.Equal(tc.anomaly, report.Anomaly)
			rq.Equal(tc.warn, report.Warn)
		})
	}
}
