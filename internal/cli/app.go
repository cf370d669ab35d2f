package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/rosterkeeper/internal/auth"
	"github.com/dmitrijs2005/rosterkeeper/internal/clock"
	"github.com/dmitrijs2005/rosterkeeper/internal/config"
	"github.com/dmitrijs2005/rosterkeeper/internal/cryptox"
	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
	"github.com/dmitrijs2005/rosterkeeper/internal/passmigrate"
	"github.com/dmitrijs2005/rosterkeeper/internal/session"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
	"github.com/dmitrijs2005/rosterkeeper/internal/store/kv"
)

type App struct {
	config   *config.Config
	store    *store.Store
	svc      *auth.Service
	migrator *passmigrate.Migrator
	guard    *session.Guard
	idle     *session.IdleWatcher
	clock    clock.Clock
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the store named by c.DatabaseDSN and wires the services on
// top of it. The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	medium, err := kv.Open(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error opening storage", "error", err)
		return nil, err
	}

	st := store.New(medium, c.Namespace, log)
	reset, err := st.Initialize(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if reset {
		log.Warn(ctx, "auth storage schema changed, stored accounts were reset")
	}

	return newApp(c, st, clock.Real(), log, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, st *store.Store, clk clock.Clock, log logging.Logger, in io.Reader, out io.Writer) *App {
	hasher := cryptox.NewHasher(c.BcryptCost)
	svc := auth.NewService(st, hasher, clk, log, c)

	return &App{
		config:   c,
		store:    st,
		svc:      svc,
		migrator: passmigrate.New(st, hasher, clk, log),
		guard:    session.NewGuard(svc, st, log),
		clock:    clk,
		log:      log.With("module", "cli"),
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

// Run prepares the session and runs the REPL until the user exits or ctx
// is done. The expired-session sweeper runs alongside.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.svc.RunSessionSweeper(ctx)

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.guard.Close()

	fmt.Fprintln(a.out, "Type 'help' for commands.")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

// Start runs the startup sequence: migration, session restore, setup and
// login.
func (a *App) Start(ctx context.Context) error {
	if err := a.migratePasswords(ctx); err != nil {
		return err
	}

	if err := a.guard.Init(ctx); err != nil {
		return err
	}
	a.idle = a.guard.WatchIdle(ctx, a.clock, a.config.IdleTimeout, a.notify)

	if u := a.guard.Current(); u != nil {
		fmt.Fprintf(a.out, "Welcome back, %s.\n", u.FullName)
		if u.RequirePasswordChange {
			if err := a.forcePasswordChange(ctx); err != nil {
				a.report(err)
			}
		}
		return nil
	}

	needsSetup, err := a.svc.NeedsSetup(ctx)
	if err != nil {
		return err
	}
	if needsSetup {
		fmt.Fprintln(a.out, "No administrator account exists yet. Let's create one.")
		if err := a.Setup(ctx); err != nil {
			a.report(err)
			return nil
		}
	}

	if err := a.Login(ctx); err != nil {
		a.report(err)
	}
	return nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) isLoggedIn() bool {
	return a.guard.Authenticated()
}

// activity reports a key press to the idle watcher.
func (a *App) activity() {
	if a.idle != nil {
		a.idle.Signal(session.SignalKeyDown)
	}
}

func (a *App) status() string {
	u := a.guard.Current()
	if u == nil {
		return ""
	}
	return fmt.Sprintf("(%s %s)", u.Username, u.Role)
}

func (a *App) notify(msg string) {
	fmt.Fprintf(a.out, "\n*** %s ***\n", msg)
}

func (a *App) report(err error) {
	msg := HumanError(err)
	if msg == unexpectedError {
		a.log.Error(context.Background(), "command failed", "error", err)
	}
	fmt.Fprintln(a.out, "Error:", msg)
}
