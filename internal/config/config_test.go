package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"appealbot/internal/config"
	"appealbot/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "appealbot.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestReadStatic(t *testing.T) {
	path := writeConfig(t, `
general:
  owner_id: 1000
  admin_ids: [2000, 3000]
telegram:
  token: "test-token"
database:
  dsn: "postgresql://test@localhost/test"
dialogue:
  session_timeout: 5m
shell:
  enabled: true
`)

	conf, errRead := config.ReadStatic(path)
	require.NoError(t, errRead)
	require.Equal(t, int64(1000), conf.General.OwnerID)
	require.Equal(t, []int64{2000, 3000}, conf.General.AdminIDs)
	require.Equal(t, "test-token", conf.Telegram.Token)
	require.Equal(t, 5*time.Minute, conf.Dialogue.SessionTimeout)
	require.True(t, conf.Shell.Enabled)

	// Untouched keys keep their defaults.
	require.Equal(t, 10*time.Second, conf.Notification.SendTimeout)
	require.Equal(t, 30*time.Second, conf.Shell.Timeout)
	require.True(t, conf.DB.AutoMigrate)
}

func TestReadStaticMissingToken(t *testing.T) {
	path := writeConfig(t, `
general:
  owner_id: 1000
`)

	_, errRead := config.ReadStatic(path)
	require.ErrorIs(t, errRead, domain.ErrConfigValue)
}

func TestReadStaticMissingOwner(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "test-token"
`)

	_, errRead := config.ReadStatic(path)
	require.ErrorIs(t, errRead, domain.ErrConfigValue)
}

func TestReadStaticMissingFile(t *testing.T) {
	_, errRead := config.ReadStatic(filepath.Join(t.TempDir(), "nope.yml"))
	require.ErrorIs(t, errRead, domain.ErrReadConfig)
}
