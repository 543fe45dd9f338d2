package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, SessionMemory, cfg.SessionBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 1, cfg.MinPhotos)
	assert.Equal(t, "Otgruzka", cfg.SheetTitle)
	assert.Equal(t, "Asia/Tashkent", cfg.Location().String())
	assert.Empty(t, cfg.WebhookURL())
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("MIN_PHOTOS", "")
	os.Unsetenv("MIN_PHOTOS")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TELEGRAM_TOKEN=from-file\nMIN_PHOTOS=3\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MIN_PHOTOS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TelegramToken)
	assert.Equal(t, 3, cfg.MinPhotos)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	os.Unsetenv("TELEGRAM_TOKEN")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			TelegramToken:  "t",
			StoreBackend:   StoreSQLite,
			SessionBackend: SessionMemory,
			MinPhotos:      1,
			Timezone:       "UTC",
		}
	}

	c := valid()
	assert.NoError(t, c.Validate())

	c = valid()
	c.MinPhotos = 5
	assert.Error(t, c.Validate())

	c = valid()
	c.StoreBackend = StoreSheets
	assert.Error(t, c.Validate())
	c.SpreadsheetID, c.CredentialsJSON = "id", "{}"
	assert.NoError(t, c.Validate())

	c = valid()
	c.SessionBackend = SessionRedis
	assert.Error(t, c.Validate())

	c = valid()
	c.BaseURL = "https://bot.example.com/"
	assert.Error(t, c.Validate())
	c.WebhookSecret = "whk_1"
	assert.NoError(t, c.Validate())
	assert.Equal(t, "https://bot.example.com/webhook/whk_1", c.WebhookURL())

	c = valid()
	c.Timezone = "Mars/Olympus"
	assert.Error(t, c.Validate())
}
