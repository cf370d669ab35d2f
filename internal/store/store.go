package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
	"github.com/dmitrijs2005/rosterkeeper/internal/store/kv"
)

const (
	// SchemaVersion is the shape of the stored collections. Any other stored
	// value wipes them on Initialize.
	SchemaVersion = 1

	// AuditCap bounds the audit log; older entries are dropped.
	AuditCap = 500
)

// Store owns a kv medium for one namespace. Its embedded Collections act on
// the medium directly; WithTx hands out Collections bound to a transaction.
type Store struct {
	*Collections
	medium kv.Store
}

// New wraps medium. Initialize must run before the collections are used.
func New(medium kv.Store, namespace string, log logging.Logger) *Store {
	log = log.With("module", "store", "namespace", namespace)
	return &Store{
		Collections: newCollections(medium, KeysFor(namespace), log),
		medium:      medium,
	}
}

// WithTx runs fn with collections whose writes commit together when fn
// returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, c *Collections) error) error {
	return s.medium.WithTx(ctx, func(ctx context.Context, repo kv.Repository) error {
		return fn(ctx, newCollections(repo, s.keys, s.log))
	})
}

// Initialize applies the schema-version gate. When the stored version is
// absent or differs from SchemaVersion, users, sessions and audit are reset
// to empty (with the ID counters) and the version is written; reset is then
// true. This discards data irrecoverably. With a matching version, any
// collection that is not a JSON array is reset on its own.
func (s *Store) Initialize(ctx context.Context) (reset bool, err error) {
	err = s.WithTx(ctx, func(ctx context.Context, c *Collections) error {
		version, err := c.schemaVersion(ctx)
		if err != nil {
			return err
		}

		if version != SchemaVersion {
			c.log.Warn(ctx, "schema version mismatch, resetting auth collections",
				"found", version, "expected", SchemaVersion)
			for _, key := range []string{c.keys.Users, c.keys.Sessions, c.keys.Audit} {
				if err := c.repo.Set(ctx, key, emptyArray); err != nil {
					return err
				}
			}
			for _, key := range []string{c.keys.UserSeq, c.keys.SessionSeq} {
				if err := c.repo.Delete(ctx, key); err != nil {
					return err
				}
			}
			reset = true
			return c.repo.Set(ctx, c.keys.SchemaVersion, []byte(strconv.Itoa(SchemaVersion)))
		}

		for _, key := range []string{c.keys.Users, c.keys.Sessions, c.keys.Audit} {
			raw, err := c.repo.Get(ctx, key)
			if err != nil {
				return err
			}
			if isJSONArray(raw) {
				continue
			}
			c.log.Warn(ctx, "collection is not an array, resetting", "key", key)
			if err := c.repo.Set(ctx, key, emptyArray); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("initialize auth storage: %w", err)
	}
	return reset, nil
}

// Close releases the medium.
func (s *Store) Close() error {
	return s.medium.Close()
}

var emptyArray = []byte("[]")

func isJSONArray(raw []byte) bool {
	var probe []json.RawMessage
	return json.Unmarshal(raw, &probe) == nil && probe != nil
}
