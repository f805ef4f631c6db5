package config

type Ton struct {
	// Mnemonic is the 24 word seed phrase of the payout wallet,
	// space separated. The wallet stays uninitialized when empty.
	Mnemonic  string `env:"TON_MNEMONIC" json:"-"`
	ConfigURL string `env:"TON_CONFIG_URL" envDefault:"https://ton.org/global.config.json"`
}
