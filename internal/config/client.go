package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage modes for the diary client.
const (
	ModeLocal  = "local"
	ModeHybrid = "hybrid"
	ModeRemote = "remote"
)

// Client configures the ediary command-line client. Variables use the EDIARY_ prefix.
type Client struct {
	APIURL   string        `envconfig:"API_URL"`
	DataDir  string        `envconfig:"DATA_DIR"`
	Mode     string        `envconfig:"MODE" default:"hybrid"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
	LogLevel string        `envconfig:"LOG_LEVEL" default:"warn"`
}

// LoadClient decodes EDIARY_* variables and fills in the data directory.
func LoadClient() (*Client, error) {
	var c Client
	if err := envconfig.Process("EDIARY", &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, ".ediary")
	}
	return &c, c.Validate()
}

// Validate normalizes Mode and checks it against the API URL.
func (c *Client) Validate() error {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	switch c.Mode {
	case ModeLocal, ModeHybrid:
	case ModeRemote:
		if c.APIURL == "" {
			return fmt.Errorf("config: mode %q requires EDIARY_API_URL", c.Mode)
		}
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}
	return nil
}

// DatabasePath is the sqlite file backing local storage.
func (c *Client) DatabasePath() string {
	return filepath.Join(c.DataDir, "ediary.db")
}

// HistoryPath is the readline history file for the interactive shell.
func (c *Client) HistoryPath() string {
	return filepath.Join(c.DataDir, "history")
}
