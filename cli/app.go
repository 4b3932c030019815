// ABOUTME: Process wiring shared by every command
// ABOUTME: Builds the logger, session store, gateway client and cached store from config
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/cache"
	"github.com/harperreed/tiddle/config"
	"github.com/harperreed/tiddle/session"
	"github.com/harperreed/tiddle/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App holds the long-lived pieces a command needs.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *session.Store
	Client   *bubble.Client
	Store    *store.Store

	Out io.Writer
	In  *os.File
	Now func() time.Time
}

// NewLogger builds a zap logger writing to stderr; stdout carries command
// output and the MCP stdio stream.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// NewApp opens the session database at the configured data dir and wires
// the gateway and store on top of it.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sessions, err := session.Open(cfg.SessionDir())
	if err != nil {
		return nil, err
	}
	app, err := newApp(cfg, logger, sessions)
	if err != nil {
		_ = sessions.Close()
		return nil, err
	}
	return app, nil
}

func newApp(cfg *config.Config, logger *zap.Logger, sessions *session.Store) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := bubble.NewClient(cfg.Bubble(), sessions.TokenSource(), bubble.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	opts := cfg.CacheOptions()
	opts.Logger = logger
	return &App{
		Config:   cfg,
		Logger:   logger,
		Sessions: sessions,
		Client:   client,
		Store:    store.New(client, cache.New(opts), cfg.TTL, logger),
		Out:      os.Stdout,
		In:       os.Stdin,
		Now:      time.Now,
	}, nil
}

func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.Sessions.Close()
}

// currentSession returns the stored session, rejecting expired ones.
func (a *App) currentSession() (session.Session, error) {
	sess, err := a.Sessions.Load()
	if err != nil {
		return session.Session{}, err
	}
	if sess.Expired(a.Now()) {
		return session.Session{}, fmt.Errorf("session expired %s: run 'tiddle login'", humanize.Time(sess.ExpiresAt))
	}
	return sess, nil
}

// userError prefers the gateway's user-facing message.
func userError(action string, err error) error {
	var be *bubble.Error
	if errors.As(err, &be) {
		return fmt.Errorf("%s: %s", action, be.Message)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func shortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
