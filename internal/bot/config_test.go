package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("GUILD_ID", "1399747611602194432")
	t.Setenv("VERIFIED_ROLE_ID", "1403065664788234275")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, uint64(1399747611602194432), cfg.GuildID)
	assert.Equal(t, uint64(1403065664788234275), cfg.VerifiedRoleID)
	assert.Equal(t, 200, cfg.EarlyCap)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "data/first200.json", cfg.StateFile)
	assert.NotEmpty(t, cfg.GatewayURL)
	assert.NotEmpty(t, cfg.APIURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("EARLY_CAP", "2")
	t.Setenv("PORT", "8080")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.EarlyCap)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadConfigMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := LoadConfig()
	require.Error(t, err, "the bot refuses to start without a token")
}
