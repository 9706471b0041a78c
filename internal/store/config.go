package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"strategy-pnl/internal/types"
)

const (
	DataSourceKite     = "KITE"
	DataSourceSnapshot = "SNAPSHOT"

	defaultAPIKeyEnv      = "KITE_API_KEY"
	defaultAccessTokenEnv = "KITE_ACCESS_TOKEN"
)

type Account struct {
	Name           string `yaml:"name"`
	APIKeyEnv      string `yaml:"api_key_env"`
	AccessTokenEnv string `yaml:"access_token_env"`
}

// Credentials reads the account's secrets from the environment. Missing
// values are left empty and rejected by the fetcher.
func (a Account) Credentials() types.Credentials {
	return types.Credentials{
		Label:       a.Name,
		APIKey:      strings.TrimSpace(os.Getenv(a.APIKeyEnv)),
		AccessToken: strings.TrimSpace(os.Getenv(a.AccessTokenEnv)),
	}
}

type Config struct {
	DataSource        string    `yaml:"data_source"`
	SnapshotDir       string    `yaml:"snapshot_dir"`
	Concurrency       int       `yaml:"concurrency"`
	IncludeAccountPnl bool      `yaml:"include_account_pnl"`
	Accounts          []Account `yaml:"accounts"`
	Broker            struct {
		BaseURI           string        `yaml:"base_uri"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerSecond int           `yaml:"requests_per_second"`
	} `yaml:"broker"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Report struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"report"`
	Schedule string `yaml:"schedule"`
}

func (c *Config) Validate() error {
	if c.DataSource != DataSourceKite && c.DataSource != DataSourceSnapshot {
		return fmt.Errorf("invalid data_source '%s': must be 'KITE' or 'SNAPSHOT'", c.DataSource)
	}
	if len(c.Accounts) == 0 {
		return errors.New("accounts cannot be empty")
	}
	seen := map[string]bool{}
	for i, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("accounts[%d].name is required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate account name '%s'", a.Name)
		}
		seen[a.Name] = true
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Broker.RequestsPerSecond < 0 {
		return fmt.Errorf("broker.requests_per_second must not be negative, got %d", c.Broker.RequestsPerSecond)
	}
	return nil
}

// CredentialSets returns the credentials of every configured account.
func (c *Config) CredentialSets() []types.Credentials {
	out := make([]types.Credentials, len(c.Accounts))
	for i, a := range c.Accounts {
		out[i] = a.Credentials()
	}
	return out
}

// Account looks up an account by name.
func (c *Config) Account(name string) (Account, bool) {
	for _, a := range c.Accounts {
		if a.Name == name {
			return a, true
		}
	}
	return Account{}, false
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.DataSource == "" {
		c.DataSource = DataSourceKite
	}
	c.DataSource = strings.ToUpper(c.DataSource)
	if c.SnapshotDir == "" {
		c.SnapshotDir = "snapshots"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Broker.Timeout == 0 {
		c.Broker.Timeout = 7 * time.Second
	}
	if c.Broker.RequestsPerSecond == 0 {
		c.Broker.RequestsPerSecond = 3
	}
	if c.Database.Path == "" {
		c.Database.Path = "strategy_pnl.db"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "reports"
	}
	if c.Schedule == "" {
		c.Schedule = "0 45 15 * * MON-FRI"
	}

	// A single-account setup may omit the accounts list
	if len(c.Accounts) == 0 {
		c.Accounts = []Account{{Name: "default"}}
	}
	for i := range c.Accounts {
		if c.Accounts[i].APIKeyEnv == "" {
			c.Accounts[i].APIKeyEnv = defaultAPIKeyEnv
		}
		if c.Accounts[i].AccessTokenEnv == "" {
			c.Accounts[i].AccessTokenEnv = defaultAccessTokenEnv
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
