package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/publish"
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	session    *session.Session
	sink       publish.Sink
	httpServer *http.Server
	frames     atomic.Int64
}

// New is the constructor for the main application. Extra modules register
// functions on top of the builtin ones.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	sess, err := session.New(ctx, session.Options{
		FPS:      cfg.FPS,
		MaxDepth: cfg.MaxDepth,
		Modules:  modules,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logger.Debug("Session created.", "functions", len(sess.Funcs.Names()))

	return &App{
		ctx:     ctx,
		outW:    outW,
		logger:  logger,
		config:  cfg,
		session: sess,
	}, nil
}

// Session returns the application's session. This is primarily for testing.
func (app *App) Session() *session.Session {
	return app.session
}
