package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	Telegram Telegram
	Postgres Postgres
	Redis    Redis
	Server   Server
	YooMoney YooMoney
	Ton      Ton
	Market   Market
	Worker   Worker
}

type App struct {
	Name    string `env:"APP_NAME" envDefault:"tonhunter"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}

func correctNewlines(s string) string {
	return strings.NewReplacer(`"`, "", `\n`, "\n").Replace(s)
}
