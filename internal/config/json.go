package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/rosterkeeper/internal/flagx"
	"github.com/dmitrijs2005/rosterkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations are strings
// such as "30m" or "168h" (see timex.Duration).
type JsonConfig struct {
	DatabaseDSN       string         `json:"database_dsn"`
	Namespace         string         `json:"namespace"`
	SessionTTL        timex.Duration `json:"session_ttl"`
	RememberMeTTL     timex.Duration `json:"remember_me_ttl"`
	MaxFailedAttempts int            `json:"max_failed_attempts"`
	LockoutDuration   timex.Duration `json:"lockout_duration"`
	IdleTimeout       timex.Duration `json:"idle_timeout"`
	CleanupInterval   timex.Duration `json:"cleanup_interval"`
	BcryptCost        int            `json:"bcrypt_cost"`
	LogFormat         string         `json:"log_format"`
	LogLevel          string         `json:"log_level"`
}

// parseJson overlays the fields present in the file named by -c/-config.
// Absent or zero fields keep their current values. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Namespace, c.Namespace)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setInt(&config.MaxFailedAttempts, c.MaxFailedAttempts)
	setInt(&config.BcryptCost, c.BcryptCost)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.RememberMeTTL, c.RememberMeTTL)
	setDuration(&config.LockoutDuration, c.LockoutDuration)
	setDuration(&config.IdleTimeout, c.IdleTimeout)
	setDuration(&config.CleanupInterval, c.CleanupInterval)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
