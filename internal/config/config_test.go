package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 4000, cfg.App.Port)
	assert.Equal(t, "/ws", cfg.Relay.Path)
	assert.Equal(t, []string{"*"}, cfg.Relay.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.Relay.PongWait)
	assert.Equal(t, 54*time.Second, cfg.Relay.PingPeriod())
	assert.Equal(t, "fire_then_mark", cfg.Notifier.Order)
	assert.Equal(t, "ws://localhost:4000/ws", cfg.Client.RelayURL)
	assert.False(t, cfg.Centrifugo.Enabled())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
app:
  port: 4100
relay:
  write_wait: 5s
  pong_wait: 30s
database:
  password: ${GARAGE_TEST_DB_PASSWORD:fallback}
firebase:
  emulator: true
notifier:
  order: mark_then_fire
`)
	t.Setenv("NOTIFIER_DISPATCHER", "fcm")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4100, cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Relay.PongWait)
	assert.Equal(t, "mark_then_fire", cfg.Notifier.Order)
	assert.Equal(t, "fcm", cfg.Notifier.Dispatcher)
	assert.Equal(t, "fallback", cfg.Database.Password)
	assert.Equal(t, "repairSchedules", cfg.Notifier.RepairCollection)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad order": `
firebase: {emulator: true}
notifier: {order: sometimes}
`,
		"write wait too long": `
firebase: {emulator: true}
relay: {write_wait: 90s, pong_wait: 60s}
`,
		"postgres without host": `
firebase: {emulator: true}
database: {driver: postgres, host: ""}
`,
		"missing project": `
firebase: {emulator: false, project_id: ""}
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("GARAGE_TEST_KEY", "from-env")

	assert.Equal(t, "from-env", expandEnv("${GARAGE_TEST_KEY:default}"))
	assert.Equal(t, "default", expandEnv("${GARAGE_TEST_MISSING:default}"))
	assert.Equal(t, "", expandEnv("${GARAGE_TEST_MISSING}"))
	assert.Equal(t, "plain", expandEnv("plain"))
}
