// Package session wires the execution core for one run: a scope, the
// effect registry, an evaluator, the builtin functions and a renderer.
// Sessions share no state with each other.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/framegraph/internal/chain"
	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/effects"
	"github.com/vk/framegraph/internal/evaluator"
	"github.com/vk/framegraph/internal/funcs"
	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/hclgraph"
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/internal/scope"
)

// Options configures a Session.
type Options struct {
	// FPS is the frame rate of extern.frame. Zero means frames only advance
	// through explicit ticks.
	FPS int
	// MaxDepth bounds evaluation depth. Zero uses the evaluator default.
	MaxDepth int
	// Now is the clock behind extern.time. Defaults to time.Now.
	Now func() time.Time
	// Modules are registered after the builtin function sets.
	Modules []registry.Module
}

// Session owns the runtime state of one run.
type Session struct {
	Scope     *scope.Scope
	Effects   *effects.Registry
	Evaluator *evaluator.Evaluator
	Funcs     *registry.Registry
	Renderer  *funcs.Renderer
	Tables    chain.Tables
	Loader    *hclgraph.Loader
}

// New creates and wires a session.
func New(ctx context.Context, opts Options) (*Session, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("session.New called.", "fps", opts.FPS, "max_depth", opts.MaxDepth)

	var interval time.Duration
	if opts.FPS > 0 {
		interval = time.Second / time.Duration(opts.FPS)
	}
	fx, err := effects.NewRegistry(
		effects.Frame(opts.FPS),
		effects.Clock(opts.Now, interval),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create effect registry: %w", err)
	}

	renderer := funcs.NewRenderer()
	modules := append([]registry.Module{
		funcs.Math{},
		funcs.Strings{},
		funcs.Objects{Renderer: renderer},
	}, opts.Modules...)
	reg := registry.New(modules...)
	logger.Debug("Functions registered.", "count", len(reg.Names()))

	tables, err := chain.Standard(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to build method tables: %w", err)
	}

	var evalOpts []evaluator.Option
	if opts.MaxDepth > 0 {
		evalOpts = append(evalOpts, evaluator.WithMaxDepth(opts.MaxDepth))
	}
	sc := scope.New()

	return &Session{
		Scope:     sc,
		Effects:   fx,
		Evaluator: evaluator.New(sc, fx, evalOpts...),
		Funcs:     reg,
		Renderer:  renderer,
		Tables:    tables,
		Loader:    hclgraph.NewLoader(reg),
	}, nil
}

// Builder returns a chain builder over a new, empty graph.
func (s *Session) Builder(graphID string) (*chain.Builder, error) {
	g, err := graph.New(graphID)
	if err != nil {
		return nil, err
	}
	return chain.NewBuilder(g, s.Funcs), nil
}

// Close discards every graph in the scope, stopping all watches and
// unbinding effect sources.
func (s *Session) Close(ctx context.Context) error {
	seen := make(map[string]bool)
	var graphIDs []string
	s.Scope.Range(func(ln *scope.LiveNode) bool {
		if !seen[ln.ID.Graph] {
			seen[ln.ID.Graph] = true
			graphIDs = append(graphIDs, ln.ID.Graph)
		}
		return true
	})

	dropped := 0
	for _, id := range graphIDs {
		dropped += s.Evaluator.Discard(id)
	}
	ctxlog.FromContext(ctx).Debug("Session closed.", "graphs", len(graphIDs), "live_nodes", dropped)
	return nil
}
