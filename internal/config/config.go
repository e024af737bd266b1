package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const configDir = ".complaint"
const configFile = "config.json"

const (
	DefaultServer                = "http://localhost:8000"
	DefaultReconnectDelayMS      = 1000
	DefaultRequestTimeoutSeconds = 300

	streamPath = "/ws/logs"
)

type Config struct {
	Server                string `json:"server"`
	StreamURL             string `json:"stream_url,omitempty"`
	ReconnectDelayMS      int    `json:"reconnect_delay_ms,omitempty"`
	MaxReconnectDelayMS   int    `json:"max_reconnect_delay_ms,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
	Profile               string `json:"-"`
}

func configPath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.json", profile)
	}
	return filepath.Join(home, configDir, filename), nil
}

// Dir returns the directory that holds profile files and the default log file.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Profile: profile}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Profile = profile
	return &cfg, nil
}

func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

// ServerURL returns the configured backend base URL without a trailing slash,
// falling back to the local development server.
func (c *Config) ServerURL() string {
	if c.Server == "" {
		return DefaultServer
	}
	return strings.TrimRight(c.Server, "/")
}

// WebSocketURL returns the event stream endpoint. An explicit stream_url wins;
// otherwise it is derived from the server URL (http→ws, https→wss).
func (c *Config) WebSocketURL() (string, error) {
	if c.StreamURL != "" {
		return c.StreamURL, nil
	}
	u, err := url.Parse(c.ServerURL())
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + streamPath
	u.RawQuery = ""
	return u.String(), nil
}

func (c *Config) ReconnectDelay() time.Duration {
	if c.ReconnectDelayMS <= 0 {
		return DefaultReconnectDelayMS * time.Millisecond
	}
	return time.Duration(c.ReconnectDelayMS) * time.Millisecond
}

// MaxReconnectDelay caps the reconnect backoff. When unset it equals
// ReconnectDelay, which keeps the delay fixed.
func (c *Config) MaxReconnectDelay() time.Duration {
	base := c.ReconnectDelay()
	if c.MaxReconnectDelayMS <= 0 {
		return base
	}
	limit := time.Duration(c.MaxReconnectDelayMS) * time.Millisecond
	if limit < base {
		return base
	}
	return limit
}

func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return DefaultRequestTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	pf := c.profileFlag()
	u, err := url.Parse(c.ServerURL())
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid server url %q. Run: complaint%s set server <url>", c.Server, pf)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url must be http or https, got %q. Run: complaint%s set server <url>", u.Scheme, pf)
	}
	if c.StreamURL != "" {
		su, err := url.Parse(c.StreamURL)
		if err != nil || (su.Scheme != "ws" && su.Scheme != "wss") {
			return fmt.Errorf("stream url must be ws or wss, got %q. Run: complaint%s set stream-url <url>", c.StreamURL, pf)
		}
	}
	return nil
}

func ListProfiles() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".json") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".json"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
