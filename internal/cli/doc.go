// Package cli is the interactive roster shell.
//
// It opens the credential store, upgrades legacy password hashes, restores
// or establishes a session through the session guard, and then runs a REPL
// of account commands gated by the signed-in user's role.
//
// Startup order:
//   - password migration, when any stored hash predates bcrypt
//   - restore of the persisted session
//   - first-run admin setup, when no active admin exists
//   - login, unless a session was restored
//
// Every entered line counts as key-down activity for the idle timeout.
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
