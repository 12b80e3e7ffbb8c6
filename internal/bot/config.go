package bot

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is sourced from the environment. Everything has a workable
// default except the token: without it there is nothing to run.
type Config struct {
	Token string `env:"DISCORD_TOKEN,notEmpty"`

	GuildID           uint64 `env:"GUILD_ID"`
	VerifiedRoleID    uint64 `env:"VERIFIED_ROLE_ID"`
	WaitingRoomRoleID uint64 `env:"WAITING_ROOM_ROLE_ID"`
	EarlyRoleID       uint64 `env:"EARLY_ROLE_ID"`
	EarlyCap          int    `env:"EARLY_CAP" envDefault:"200"`

	Port      int    `env:"PORT" envDefault:"5000"`
	StateFile string `env:"STATE_FILE" envDefault:"data/first200.json"`

	GatewayURL string `env:"GATEWAY_URL" envDefault:"wss://gateway.discord.gg/?v=10&encoding=json"`
	APIURL     string `env:"API_URL" envDefault:"https://discord.com/api/v10"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
