package config

import "time"

type Worker struct {
	SettlementInterval time.Duration `env:"SETTLEMENT_INTERVAL" envDefault:"15s"`
	ExpiryInterval     time.Duration `env:"EXPIRY_INTERVAL" envDefault:"30s"`
	ScanInterval       time.Duration `env:"SCAN_INTERVAL" envDefault:"3m"`
}
