package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/rosterkeeper/internal/clock"
	"github.com/dmitrijs2005/rosterkeeper/internal/config"
	"github.com/dmitrijs2005/rosterkeeper/internal/cryptox"
	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
	"github.com/dmitrijs2005/rosterkeeper/internal/store/kv"
)

var start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *store.Store
	clock *clock.FakeClock
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.New(kv.NewMemory(), "yms", logging.Nop())
	_, err := st.Initialize(ctx)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	clk := clock.Fake(start)
	svc := NewService(st, cryptox.NewHasher(bcrypt.MinCost), clk, logging.Nop(), cfg)
	return &fixture{svc: svc, store: st, clock: clk, ctx: ctx}
}

// setupAdmin creates "alice" / "Passw0rd!" and returns the new ID.
func (f *fixture) setupAdmin(t *testing.T) int64 {
	t.Helper()
	id, err := f.svc.SetupInitialAdmin(f.ctx, SetupRequest{
		Username: "alice",
		Password: "Passw0rd!",
		FullName: "Alice A",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) login(t *testing.T, username, password string) *LoginResult {
	t.Helper()
	res, err := f.svc.Login(f.ctx, LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
	return res
}

func (f *fixture) user(t *testing.T, id int64) models.User {
	t.Helper()
	users, err := f.store.ReadUsers(f.ctx)
	require.NoError(t, err)
	for _, u := range users {
		if u.ID == id {
			return u
		}
	}
	t.Fatalf("user %d not stored", id)
	return models.User{}
}

func (f *fixture) sessions(t *testing.T) []models.Session {
	t.Helper()
	sessions, err := f.store.ReadSessions(f.ctx)
	require.NoError(t, err)
	return sessions
}

func (f *fixture) lastAudit(t *testing.T) models.AuditEntry {
	t.Helper()
	entries, err := f.store.ReadAuditPage(f.ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}
