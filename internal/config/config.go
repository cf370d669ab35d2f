// Package config handles configuration for the roster shell: defaults,
// a JSON file overlay, a dotenv/environment overlay and command-line flags,
// applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDSN: sqlite file path or DSN; a postgres:// or postgresql:// DSN selects PostgreSQL.
//   - Namespace: prefix of every storage key, so several rosters can share one database.
//   - SessionTTL / RememberMeTTL: session lifetime without and with "remember me".
//   - MaxFailedAttempts / LockoutDuration: lockout policy.
//   - IdleTimeout: inactivity window after which the shell logs the user out.
//   - CleanupInterval: period of the expired-session sweep.
//   - BcryptCost: password hashing work factor.
//   - LogFormat / LogLevel: see logging.New.
type Config struct {
	DatabaseDSN       string
	Namespace         string
	SessionTTL        time.Duration
	RememberMeTTL     time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	IdleTimeout       time.Duration
	CleanupInterval   time.Duration
	BcryptCost        int
	LogFormat         string
	LogLevel          string
}

// LoadDefaults populates c with the documented defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "roster.db"
	c.Namespace = "yms"
	c.SessionTTL = 30 * time.Minute
	c.RememberMeTTL = 7 * 24 * time.Hour
	c.MaxFailedAttempts = 5
	c.LockoutDuration = 15 * time.Minute
	c.IdleTimeout = 30 * time.Minute
	c.CleanupInterval = time.Hour
	c.BcryptCost = 10
	c.LogFormat = "text"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the environment (after loading the dotenv file named by
// -env, or ./.env when present), then flags. Later sources win.
//
// Malformed JSON, dotenv or flag input panics, and so does a result that
// fails Validate: the shell cannot run on a half-read configuration.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, args)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the services cannot run with. Every duration
// and the lockout threshold must be positive.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	positive("session TTL", c.SessionTTL)
	positive("remember-me TTL", c.RememberMeTTL)
	positive("lockout duration", c.LockoutDuration)
	positive("idle timeout", c.IdleTimeout)
	positive("cleanup interval", c.CleanupInterval)
	if c.MaxFailedAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max failed attempts must be positive, got %d", c.MaxFailedAttempts))
	}
	if c.Namespace == "" {
		errs = append(errs, errors.New("namespace must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// String renders the config for startup logs. The DSN is masked because it
// may carry database credentials.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DSN: ***, Namespace: %s, SessionTTL: %s, RememberMeTTL: %s, MaxFailedAttempts: %d, LockoutDuration: %s, IdleTimeout: %s, CleanupInterval: %s, BcryptCost: %d, Log: %s/%s}",
		c.Namespace, c.SessionTTL, c.RememberMeTTL, c.MaxFailedAttempts, c.LockoutDuration,
		c.IdleTimeout, c.CleanupInterval, c.BcryptCost, c.LogFormat, c.LogLevel,
	)
}
