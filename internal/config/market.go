package config

import "time"

type Market struct {
	BybitBaseURL   string        `env:"BYBIT_BASE_URL" envDefault:"https://api.bybit.com"`
	AvitoBaseURL   string        `env:"AVITO_BASE_URL" envDefault:"https://www.avito.ru"`
	RequestTimeout time.Duration `env:"MARKET_REQUEST_TIMEOUT" envDefault:"15s"`
}
