package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/commander-election/internal/election"
	"github.com/DoyleJ11/commander-election/internal/match"
)

type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV" envDefault:"false"`

	TickInterval  time.Duration `env:"TICK_INTERVAL" envDefault:"100ms"`
	OrderCooldown time.Duration `env:"ORDER_COOLDOWN" envDefault:"5s"`
	WarmUp        bool          `env:"MATCH_WARMUP" envDefault:"true"`
	OutboxSize    int           `env:"OUTBOX_SIZE" envDefault:"32"`
	ReadTimeout   time.Duration `env:"READ_TIMEOUT" envDefault:"60s"`

	ElectionTimeout     time.Duration `env:"ELECTION_TIMEOUT" envDefault:"30s"`
	AcceptThreshold     float64       `env:"ELECTION_ACCEPT_THRESHOLD" envDefault:"0.5"`
	MaxElectionRequests int           `env:"ELECTION_MAX_REQUESTS" envDefault:"1"`
	MinEligibleVoters   int           `env:"ELECTION_MIN_VOTERS" envDefault:"2"`
}

// Load reads an optional .env file (envFile may be empty) and then the
// process environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ElectionTimeout <= 0 {
		return fmt.Errorf("ELECTION_TIMEOUT must be positive, got %v", c.ElectionTimeout)
	}
	if c.TickInterval < 0 || c.OrderCooldown < 0 {
		return errors.New("TICK_INTERVAL and ORDER_COOLDOWN must not be negative")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT must be positive, got %v", c.ReadTimeout)
	}
	if c.AcceptThreshold < 0 || c.AcceptThreshold >= 1 {
		return fmt.Errorf("ELECTION_ACCEPT_THRESHOLD must be in [0,1), got %v", c.AcceptThreshold)
	}
	if c.MaxElectionRequests < 1 {
		return fmt.Errorf("ELECTION_MAX_REQUESTS must be at least 1, got %d", c.MaxElectionRequests)
	}
	if c.MinEligibleVoters < 1 {
		return fmt.Errorf("ELECTION_MIN_VOTERS must be at least 1, got %d", c.MinEligibleVoters)
	}
	if c.OutboxSize < 1 {
		return fmt.Errorf("OUTBOX_SIZE must be at least 1, got %d", c.OutboxSize)
	}
	return nil
}

func (c Config) Match() match.Config {
	return match.Config{
		Election: election.Config{
			Timeout:             c.ElectionTimeout,
			AcceptThreshold:     c.AcceptThreshold,
			MaxRequestsPerMatch: c.MaxElectionRequests,
			MinEligibleVoters:   c.MinEligibleVoters,
		},
		TickInterval:  c.TickInterval,
		OrderCooldown: c.OrderCooldown,
		WarmUp:        c.WarmUp,
		InboxSize:     64,
	}
}
