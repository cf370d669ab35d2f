package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/rosterkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   database DSN (sqlite path or postgres:// DSN)
//	-n string   storage key namespace
//	-t int      session validity, minutes
//	-r int      "remember me" session validity, minutes
//	-m int      failed attempts before lockout
//	-o int      lockout duration, minutes
//	-i int      idle timeout, minutes
//	-k int      expired-session sweep interval, minutes
//	-b int      bcrypt cost
//	-f string   log format (text, json, zap)
//	-v string   log level (debug, info, warn, error)
//
// Only these flags are parsed (see flagx.FilterArgs) so -c/-config and -env
// can share the command line. Invalid values panic.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-d", "-n", "-t", "-r", "-m", "-o", "-i", "-k", "-b", "-f", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Namespace, "n", config.Namespace, "storage key namespace")

	sessionTTL := fs.Int("t", minutes(config.SessionTTL), "session validity (in minutes)")
	rememberMeTTL := fs.Int("r", minutes(config.RememberMeTTL), "remember-me session validity (in minutes)")
	fs.IntVar(&config.MaxFailedAttempts, "m", config.MaxFailedAttempts, "failed attempts before lockout")
	lockout := fs.Int("o", minutes(config.LockoutDuration), "lockout duration (in minutes)")
	idle := fs.Int("i", minutes(config.IdleTimeout), "idle timeout (in minutes)")
	cleanup := fs.Int("k", minutes(config.CleanupInterval), "expired session sweep interval (in minutes)")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")

	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format: text, json or zap")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.RememberMeTTL = time.Duration(*rememberMeTTL) * time.Minute
	config.LockoutDuration = time.Duration(*lockout) * time.Minute
	config.IdleTimeout = time.Duration(*idle) * time.Minute
	config.CleanupInterval = time.Duration(*cleanup) * time.Minute
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}
