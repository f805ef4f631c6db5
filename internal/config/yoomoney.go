package config

import "time"

type YooMoney struct {
	Token          string        `env:"YOOMONEY_TOKEN,required" json:"-"`
	Receiver       string        `env:"YOOMONEY_RECEIVER,required"`
	BaseURL        string        `env:"YOOMONEY_BASE_URL" envDefault:"https://yoomoney.ru"`
	RequestTimeout time.Duration `env:"YOOMONEY_REQUEST_TIMEOUT" envDefault:"10s"`
}
