package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultAddr is the default TCP address the gateway listens on.
	DefaultAddr = ":8090"
	// DefaultReadLimitBytes caps inbound WebSocket frame size.
	DefaultReadLimitBytes int64 = 8192
	// DefaultPingInterval controls the keepalive cadence for WebSocket
	// connections.
	DefaultPingInterval = 30 * time.Second
	// DefaultActionInterval is the minimum gap between two gameplay actions
	// from the same profile in the same match.
	DefaultActionInterval = 200 * time.Millisecond
	// DefaultChatInterval is the minimum gap between two chat messages from
	// the same profile in the same match.
	DefaultChatInterval = time.Second
	// DefaultChatMaxLength caps sanitized chat message length.
	DefaultChatMaxLength = 500
	// DefaultLobbyChatLimit bounds lobby chat messages per window.
	DefaultLobbyChatLimit = 30
	// DefaultLobbyChatWindow is the lobby chat rate-limit window.
	DefaultLobbyChatWindow = time.Minute
	// DefaultActionTimeoutSeconds is surfaced inside action prompts; the
	// engine enforces it, this layer only reports it.
	DefaultActionTimeoutSeconds = 30
	// DefaultLogLevel controls verbosity for gateway logs.
	DefaultLogLevel = "info"
)

// Config captures all runtime tunables for the gateway service.
type Config struct {
	Address         string        `env:"GATEWAY_ADDR"`
	AllowedOrigins  []string      `env:"GATEWAY_ALLOWED_ORIGINS"`
	AuthSecret      string        `env:"GATEWAY_AUTH_SECRET"`
	AdminToken      string        `env:"GATEWAY_ADMIN_TOKEN"`
	ReadLimitBytes  int64         `env:"GATEWAY_READ_LIMIT_BYTES"`
	PingInterval    time.Duration `env:"GATEWAY_PING_INTERVAL"`
	ActionInterval  time.Duration `env:"GATEWAY_ACTION_INTERVAL"`
	ChatInterval    time.Duration `env:"GATEWAY_CHAT_INTERVAL"`
	ChatMaxLength   int           `env:"GATEWAY_CHAT_MAX_LENGTH"`
	LobbyChatLimit  int           `env:"GATEWAY_LOBBY_CHAT_LIMIT"`
	LobbyChatWindow time.Duration `env:"GATEWAY_LOBBY_CHAT_WINDOW"`
	JournalDir      string        `env:"GATEWAY_JOURNAL_DIR"`
	LogLevel        string        `env:"GATEWAY_LOG_LEVEL"`
}

// Load reads the gateway configuration from environment variables, applying
// sane defaults and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Address:         DefaultAddr,
		ReadLimitBytes:  DefaultReadLimitBytes,
		PingInterval:    DefaultPingInterval,
		ActionInterval:  DefaultActionInterval,
		ChatInterval:    DefaultChatInterval,
		ChatMaxLength:   DefaultChatMaxLength,
		LobbyChatLimit:  DefaultLobbyChatLimit,
		LobbyChatWindow: DefaultLobbyChatWindow,
		LogLevel:        DefaultLogLevel,
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Address = strings.TrimSpace(cfg.Address)
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.AdminToken = strings.TrimSpace(cfg.AdminToken)
	cfg.JournalDir = strings.TrimSpace(cfg.JournalDir)

	var problems []string
	if cfg.Address == "" {
		problems = append(problems, "GATEWAY_ADDR must not be empty")
	}
	if cfg.AuthSecret == "" {
		problems = append(problems, "GATEWAY_AUTH_SECRET must be set")
	}
	if cfg.ReadLimitBytes <= 0 {
		problems = append(problems, fmt.Sprintf("GATEWAY_READ_LIMIT_BYTES must be positive, got %d", cfg.ReadLimitBytes))
	}
	if cfg.PingInterval <= 0 {
		problems = append(problems, fmt.Sprintf("GATEWAY_PING_INTERVAL must be a positive duration, got %s", cfg.PingInterval))
	}
	if cfg.ActionInterval <= 0 {
		problems = append(problems, fmt.Sprintf("GATEWAY_ACTION_INTERVAL must be a positive duration, got %s", cfg.ActionInterval))
	}
	if cfg.ChatInterval <= 0 {
		problems = append(problems, fmt.Sprintf("GATEWAY_CHAT_INTERVAL must be a positive duration, got %s", cfg.ChatInterval))
	}
	if cfg.ChatMaxLength <= 0 {
		problems = append(problems, fmt.Sprintf("GATEWAY_CHAT_MAX_LENGTH must be positive, got %d", cfg.ChatMaxLength))
	}
	if cfg.LobbyChatLimit <= 0 {
		problems = append(problems, fmt.Sprintf("GATEWAY_LOBBY_CHAT_LIMIT must be positive, got %d", cfg.LobbyChatLimit))
	}
	if cfg.LobbyChatWindow <= 0 {
		problems = append(problems, fmt.Sprintf("GATEWAY_LOBBY_CHAT_WINDOW must be a positive duration, got %s", cfg.LobbyChatWindow))
	}
	if len(problems) > 0 {
		return nil, errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return cfg, nil
}

// OriginAllowed reports whether the supplied Origin header value may open a
// WebSocket. An empty allow-list admits every origin.
func (c *Config) OriginAllowed(origin string) bool {
	if c == nil || len(c.AllowedOrigins) == 0 {
		return true
	}
	origin = strings.TrimSpace(origin)
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	return false
}
