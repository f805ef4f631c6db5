package config

type Telegram struct {
	BotToken              string `env:"BOT_TOKEN,required" json:"-"`
	AdminChatID           int64  `env:"BOT_ADMIN_CHAT_ID,required"`
	PaymentsProviderToken string `env:"BOT_PAYMENTS_PROVIDER_TOKEN" json:"-"`
}
