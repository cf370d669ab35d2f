// Package kv is the storage medium under the credential store: a flat table
// of opaque key/value pairs.
//
// Three implementations share the Repository contract:
//
//   - SQLRepository over any dbx.DBTX (SQLite or PostgreSQL dialect);
//   - DB, an opened database with embedded goose migrations and transactions;
//   - Memory, a map-backed store for tests and ephemeral runs.
//
// Get of an absent key returns (nil, nil).
package kv
