package store

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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "include_account_pnl: true\n"))
	require.NoError(t, err)

	assert.Equal(t, DataSourceKite, cfg.DataSource)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 7*time.Second, cfg.Broker.Timeout)
	assert.Equal(t, 3, cfg.Broker.RequestsPerSecond)
	assert.Equal(t, "strategy_pnl.db", cfg.Database.Path)
	assert.Equal(t, "0 45 15 * * MON-FRI", cfg.Schedule)
	assert.True(t, cfg.IncludeAccountPnl)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "KITE_API_KEY", cfg.Accounts[0].APIKeyEnv)
	assert.Equal(t, "KITE_ACCESS_TOKEN", cfg.Accounts[0].AccessTokenEnv)
}

func TestLoadConfigAccounts(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
data_source: snapshot
concurrency: 2
broker:
  timeout: 3s
  requests_per_second: 5
accounts:
  - name: desk-a
    api_key_env: DESK_A_KEY
    access_token_env: DESK_A_TOKEN
  - name: desk-b
`))
	require.NoError(t, err)
	assert.Equal(t, DataSourceSnapshot, cfg.DataSource)
	assert.Equal(t, 3*time.Second, cfg.Broker.Timeout)

	t.Setenv("DESK_A_KEY", "key-a")
	t.Setenv("DESK_A_TOKEN", " token-a ")
	t.Setenv("KITE_API_KEY", "key-b")
	t.Setenv("KITE_ACCESS_TOKEN", "token-b")

	creds := cfg.CredentialSets()
	require.Len(t, creds, 2)
	assert.Equal(t, "desk-a", creds[0].Label)
	assert.Equal(t, "token-a", creds[0].AccessToken)
	assert.Equal(t, "key-b", creds[1].APIKey)

	a, ok := cfg.Account("desk-b")
	assert.True(t, ok)
	assert.Equal(t, "KITE_API_KEY", a.APIKeyEnv)
	_, ok = cfg.Account("nope")
	assert.False(t, ok)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad data source", "data_source: CSV\n"},
		{"negative concurrency", "concurrency: -1\n"},
		{"negative rate", "broker:\n  requests_per_second: -2\n"},
		{"unnamed account", "accounts:\n  - api_key_env: X\n"},
		{"duplicate account", "accounts:\n  - name: a\n  - name: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
