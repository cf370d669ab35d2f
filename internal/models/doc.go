// Package models defines the persisted records of the auth core (users,
// sessions, audit entries) and the sanitized views handed to callers.
//
// JSON field names are the stored wire format and must not change without
// bumping the store schema version.
package models
