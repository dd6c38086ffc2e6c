// Package config loads the YAML configuration file and applies environment
// overrides for secrets and endpoint URLs. Durations are stored as strings
// ("150ms", "2s") and surfaced through accessor methods with defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Target struct {
	// Package is the application the assistant guides the user through.
	Package string `yaml:"package"`
	// ShellLabel is that application's settings shell title.
	ShellLabel string `yaml:"shell_label"`
	// OwnPackage identifies our own process so captures skip it.
	OwnPackage string `yaml:"own_package"`
	// StartURL is opened by the browser-backed tree source.
	StartURL string `yaml:"start_url"`
}

type Assistant struct {
	Provider string `yaml:"provider"` // remote, openai, claude
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

type Capture struct {
	MaxItems     int    `yaml:"max_items"`
	PollInterval string `yaml:"poll_interval"`
	PollDeadline string `yaml:"poll_deadline"`
}

type Session struct {
	DismissDelay string `yaml:"dismiss_delay"`
	SettleDelay  string `yaml:"settle_delay"`
	MaxFailures  int    `yaml:"max_failures"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Sentinels struct {
	Success string `yaml:"success"`
	Unclear string `yaml:"unclear"`
	Closed  string `yaml:"closed"`
}

type Logging struct {
	Debug bool `yaml:"debug"`
}

type Config struct {
	Target    Target    `yaml:"target"`
	Assistant Assistant `yaml:"assistant"`
	Capture   Capture   `yaml:"capture"`
	Session   Session   `yaml:"session"`
	Server    Server    `yaml:"server"`
	Sentinels Sentinels `yaml:"sentinels"`
	Logging   Logging   `yaml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Target: Target{
			ShellLabel: "設定",
		},
		Assistant: Assistant{
			Provider: "remote",
		},
		Capture: Capture{
			MaxItems:     100,
			PollInterval: "150ms",
			PollDeadline: "2s",
		},
		Session: Session{
			DismissDelay: "1500ms",
			SettleDelay:  "300ms",
			MaxFailures:  3,
		},
		Server: Server{Port: 8765},
		Sentinels: Sentinels{
			Success: "恭喜成功",
			Unclear: "您的輸入沒有明確目的",
			Closed:  "已關閉任務",
		},
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) PollInterval() time.Duration {
	return parseDuration(c.Capture.PollInterval, 150*time.Millisecond)
}

func (c *Config) PollDeadline() time.Duration {
	return parseDuration(c.Capture.PollDeadline, 2*time.Second)
}

func (c *Config) DismissDelay() time.Duration {
	return parseDuration(c.Session.DismissDelay, 1500*time.Millisecond)
}

func (c *Config) SettleDelay() time.Duration {
	return parseDuration(c.Session.SettleDelay, 300*time.Millisecond)
}

// Load reads path (optional) over the defaults, then applies environment
// overrides. ASSISTANT_API_URL always wins over the file for the remote
// provider's endpoint.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if url := os.Getenv("ASSISTANT_API_URL"); url != "" {
		cfg.Assistant.BaseURL = url
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Assistant.Provider {
	case "", "remote":
		if c.Assistant.BaseURL == "" {
			return fmt.Errorf("assistant.base_url (or ASSISTANT_API_URL) is required for the remote provider")
		}
	case "openai", "gpt", "claude", "anthropic":
	default:
		return fmt.Errorf("unknown assistant.provider %q", c.Assistant.Provider)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
