package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/rosterkeeper/internal/flagx"
)

const envPrefix = "ROSTER_"

// parseEnv loads the dotenv file named by -env (which must exist) or ./.env
// (if it exists) into the process environment without overriding variables
// already set, then overlays every ROSTER_* variable onto config.
//
// Durations use Go syntax ("30m"); counts are plain integers.
func parseEnv(config *Config, args []string) {
	if path := flagx.EnvFileFlag(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.Namespace, "NAMESPACE")
	envString(&config.LogFormat, "LOG_FORMAT")
	envString(&config.LogLevel, "LOG_LEVEL")
	envInt(&config.MaxFailedAttempts, "MAX_FAILED_ATTEMPTS")
	envInt(&config.BcryptCost, "BCRYPT_COST")
	envDuration(&config.SessionTTL, "SESSION_TTL")
	envDuration(&config.RememberMeTTL, "REMEMBER_ME_TTL")
	envDuration(&config.LockoutDuration, "LOCKOUT_DURATION")
	envDuration(&config.IdleTimeout, "IDLE_TIMEOUT")
	envDuration(&config.CleanupInterval, "CLEANUP_INTERVAL")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("invalid integer for %s%s: %w", envPrefix, name, err))
	}
	*dst = n
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("invalid duration for %s%s: %w", envPrefix, name, err))
	}
	*dst = d
}
