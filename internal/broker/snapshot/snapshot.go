// Package snapshot stores raw broker payloads on disk and replays them as a
// BrokerClient.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/types"
)

// Payload is everything one breakdown run reads from the broker.
type Payload struct {
	CapturedAt   time.Time         `json:"captured_at"`
	Trades       []types.RawRecord `json:"trades"`
	Orders       []types.RawRecord `json:"orders"`
	DayPositions []types.RawRecord `json:"day_positions"`
	Profile      types.RawRecord   `json:"profile"`
}

// Client replays a payload file. The file is read lazily on first use.
type Client struct {
	path string

	once    sync.Once
	payload Payload
	err     error
}

var _ interfaces.BrokerClient = (*Client)(nil)

func NewClient(path string) *Client {
	return &Client{path: path}
}

// NewFactory resolves each credential set to <dir>/<label>.json.
func NewFactory(dir string) interfaces.BrokerFactory {
	return func(creds types.Credentials) interfaces.BrokerClient {
		return NewClient(PathFor(dir, creds.Label))
	}
}

func PathFor(dir, label string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(label)
	if name == "" {
		name = "default"
	}
	return filepath.Join(dir, name+".json")
}

func (c *Client) load() (Payload, error) {
	c.once.Do(func() {
		c.payload, c.err = Load(c.path)
	})
	return c.payload, c.err
}

func (c *Client) Trades(ctx context.Context) ([]types.RawRecord, error) {
	p, err := c.load()
	return p.Trades, err
}

func (c *Client) Orders(ctx context.Context) ([]types.RawRecord, error) {
	p, err := c.load()
	return p.Orders, err
}

func (c *Client) DayPositions(ctx context.Context) ([]types.RawRecord, error) {
	p, err := c.load()
	return p.DayPositions, err
}

func (c *Client) Profile(ctx context.Context) (types.RawRecord, error) {
	p, err := c.load()
	return p.Profile, err
}

// Load reads a payload file, keeping numbers as json.Number.
func Load(path string) (Payload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("read snapshot: %w", err)
	}
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path, creating parent directories.
func Save(path string, p Payload) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// Capture reads every endpoint of client into a payload. A failed profile
// read is tolerated; trade, order and position failures are not.
func Capture(ctx context.Context, client interfaces.BrokerClient, now time.Time) (Payload, error) {
	p := Payload{CapturedAt: now}
	var err error
	if p.Trades, err = client.Trades(ctx); err != nil {
		return Payload{}, err
	}
	if p.Orders, err = client.Orders(ctx); err != nil {
		return Payload{}, err
	}
	if p.DayPositions, err = client.DayPositions(ctx); err != nil {
		return Payload{}, err
	}
	if profile, err := client.Profile(ctx); err != nil {
		logger.Warn(ctx, "Profile unavailable, capturing without it", "error", err)
	} else {
		p.Profile = profile
	}
	return p, nil
}
