package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/store/kv"
)

// Collections reads and writes the auth documents through one kv handle.
type Collections struct {
	repo kv.Repository
	keys Keys
	log  logging.Logger
}

func newCollections(repo kv.Repository, keys Keys, log logging.Logger) *Collections {
	return &Collections{repo: repo, keys: keys, log: log}
}

func (c *Collections) ReadUsers(ctx context.Context) ([]models.User, error) {
	return readList[models.User](ctx, c, c.keys.Users)
}

func (c *Collections) WriteUsers(ctx context.Context, users []models.User) error {
	return c.writeJSON(ctx, c.keys.Users, users)
}

func (c *Collections) ReadSessions(ctx context.Context) ([]models.Session, error) {
	return readList[models.Session](ctx, c, c.keys.Sessions)
}

func (c *Collections) WriteSessions(ctx context.Context, sessions []models.Session) error {
	return c.writeJSON(ctx, c.keys.Sessions, sessions)
}

// ReadAudit returns the whole audit log, newest first.
func (c *Collections) ReadAudit(ctx context.Context) ([]models.AuditEntry, error) {
	return readList[models.AuditEntry](ctx, c, c.keys.Audit)
}

// ReadAuditPage returns at most limit entries, newest first. A limit of
// zero or less means all of them.
func (c *Collections) ReadAuditPage(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	entries, err := c.ReadAudit(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// WriteAudit replaces the audit log, truncated to AuditCap.
func (c *Collections) WriteAudit(ctx context.Context, entries []models.AuditEntry) error {
	if len(entries) > AuditCap {
		entries = entries[:AuditCap]
	}
	return c.writeJSON(ctx, c.keys.Audit, entries)
}

// AppendAudit prepends entry and drops whatever falls beyond AuditCap.
// An entry without an ID gets a random one.
func (c *Collections) AppendAudit(ctx context.Context, entry models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entries, err := c.ReadAudit(ctx)
	if err != nil {
		return err
	}
	out := make([]models.AuditEntry, 0, min(len(entries)+1, AuditCap))
	out = append(out, entry)
	out = append(out, entries[:min(len(entries), AuditCap-1)]...)
	return c.WriteAudit(ctx, out)
}

// NextUserID issues the next user ID. IDs come from a persisted counter and
// are never reused; the counter is seeded from the largest ID in users.
func (c *Collections) NextUserID(ctx context.Context, users []models.User) (int64, error) {
	var highest int64
	for i := range users {
		highest = max(highest, users[i].ID)
	}
	return c.nextID(ctx, c.keys.UserSeq, highest)
}

// NextSessionID is NextUserID for sessions.
func (c *Collections) NextSessionID(ctx context.Context, sessions []models.Session) (int64, error) {
	var highest int64
	for i := range sessions {
		highest = max(highest, sessions[i].ID)
	}
	return c.nextID(ctx, c.keys.SessionSeq, highest)
}

func (c *Collections) nextID(ctx context.Context, key string, highest int64) (int64, error) {
	raw, err := c.repo.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	var last int64
	if len(raw) > 0 {
		last, err = strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			c.log.Warn(ctx, "malformed id counter, reseeding", "key", key, "error", err)
			last = 0
		}
	}

	next := max(last, highest) + 1
	if err := c.repo.Set(ctx, key, []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, err
	}
	return next, nil
}

// ActiveToken returns the token persisted by the session guard, or "".
func (c *Collections) ActiveToken(ctx context.Context) (string, error) {
	raw, err := c.repo.Get(ctx, c.keys.ActiveToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Collections) SetActiveToken(ctx context.Context, token string) error {
	return c.repo.Set(ctx, c.keys.ActiveToken, []byte(token))
}

func (c *Collections) ClearActiveToken(ctx context.Context) error {
	return c.repo.Delete(ctx, c.keys.ActiveToken)
}

func (c *Collections) schemaVersion(ctx context.Context) (int, error) {
	raw, err := c.repo.Get(ctx, c.keys.SchemaVersion)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.Warn(ctx, "malformed schema version", "key", c.keys.SchemaVersion, "error", err)
		return 0, nil
	}
	return v, nil
}

func (c *Collections) writeJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.repo.Set(ctx, key, b)
}

func readList[T any](ctx context.Context, c *Collections, key string) ([]T, error) {
	raw, err := c.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn(ctx, "malformed collection, reading as empty", "key", key, "error", err)
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
