package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/effects"
	"github.com/vk/framegraph/internal/hclgraph"
	"github.com/vk/framegraph/internal/nodeid"
	"github.com/vk/framegraph/internal/publish"
	"github.com/vk/framegraph/internal/scope"
	"github.com/vk/framegraph/internal/watch"
	"golang.org/x/sync/errgroup"
)

// Run loads the scene, evaluates its output and keeps re-evaluating it on
// every frame until the frame limit is reached or ctx is cancelled. Values
// of the watched node are sent to the configured sink.
func (app *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	logger := app.logger
	logger.Debug("App.Run method started.")

	app.startHealthcheckServer()
	defer app.closeHealthcheckServer()
	defer app.session.Close(ctx)

	scene, err := app.session.Loader.Load(ctx, app.config.GraphPath)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	g := scene.Graph
	logger.Info("Graph loaded.", "graph", g.ID, "nodes", len(g.Nodes), "out", g.Out, "watch", scene.Watch)

	out, err := app.session.Evaluator.RunGraphNode(ctx, g, g.Out)
	if err != nil {
		return fmt.Errorf("failed to evaluate graph: %w", err)
	}
	app.frames.Store(1)
	logger.Info("🚀 Graph evaluated.", "out", g.Out, "value", out)

	sink, err := app.openSink(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	var (
		ln *scope.LiveNode
		w  *watch.Watch
	)
	if scene.Watch != "" {
		ln, err = app.watched(ctx, scene)
		if err != nil {
			return err
		}
		w = app.session.Evaluator.CreateWatch(ln)
		v, version, _ := ln.Snapshot()
		if err := sink.Publish(ctx, update(ln.ID, version, v)); err != nil {
			logger.Error("Failed to publish watched value, watch terminated.", "node", ln.ID.String(), "error", err)
			w.Stop()
			w = nil
		}
	}

	if err := app.loop(ctx, scene, sink, ln, w); err != nil {
		return err
	}
	logger.Info("🏁 Run finished.", "frames", app.frames.Load())
	return nil
}

// loop drives the effect sources, re-runs the output on every frame and
// forwards watch deliveries to sink. It returns once driving stops and the
// last delivery was handled.
func (app *App) loop(ctx context.Context, scene *hclgraph.Scene, sink publish.Sink, ln *scope.LiveNode, w *watch.Watch) error {
	logger := ctxlog.FromContext(ctx)
	g := scene.Graph

	eg, gctx := errgroup.WithContext(ctx)
	driveCtx, stopDrive := context.WithCancel(gctx)
	defer stopDrive()
	consumeCtx, stopConsume := context.WithCancel(gctx)
	defer stopConsume()

	// Holds at most one pending frame. Evaluation always reads the current
	// state, so frames that arrive while one is pending are merged into it.
	frames := make(chan any, 1)
	var ticks atomic.Int64
	after := func(name string, v any) {
		if name != effects.FrameRef {
			return
		}
		n := ticks.Add(1)
		select {
		case frames <- v:
		default:
		}
		if limit := app.config.Frames; limit > 0 && n >= int64(limit) {
			stopDrive()
		}
	}

	eg.Go(func() error {
		defer close(frames)
		return app.session.Effects.Drive(driveCtx, after)
	})

	eg.Go(func() error {
		defer stopConsume()
		for frame := range frames {
			v, err := app.session.Evaluator.RunGraphNode(gctx, g, g.Out)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				logger.Error("Frame evaluation failed.", "frame", frame, "error", err)
				continue
			}
			n := app.frames.Add(1)
			logger.Debug("Frame evaluated.", "frame", frame, "evaluations", n, "value", v)
		}
		return nil
	})

	if w != nil {
		eg.Go(func() error {
			return app.consume(consumeCtx, sink, ln, w)
		})
	}

	return eg.Wait()
}

// consume publishes every value delivered to w. A value still pending when
// ctx is cancelled is published before returning. Publish errors end this
// watch only.
func (app *App) consume(ctx context.Context, sink publish.Sink, ln *scope.LiveNode, w *watch.Watch) error {
	logger := ctxlog.FromContext(app.ctx)
	for d, err := range w.Deliveries(ctx) {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logger.Error("Watch failed, watch terminated.", "node", ln.ID.String(), "error", err)
			return nil
		}
		if err := sink.Publish(ctx, update(ln.ID, d.Version, d.Value)); err != nil {
			logger.Error("Failed to publish watched value, watch terminated.", "node", ln.ID.String(), "error", err)
			return nil
		}
	}
	return nil
}

// watched returns the live node of the scene's watched node. The node is
// evaluated if the output did not reach it.
func (app *App) watched(ctx context.Context, scene *hclgraph.Scene) (*scope.LiveNode, error) {
	id := nodeid.ScopedID{Graph: scene.Graph.ID, Node: scene.Watch}
	if ln, ok := app.session.Scope.Get(id); ok {
		return ln, nil
	}
	ctxlog.FromContext(ctx).Debug("Watched node not reached by output, evaluating it.", "node", id.String())
	if _, err := app.session.Evaluator.RunGraphNode(ctx, scene.Graph, scene.Watch); err != nil {
		return nil, fmt.Errorf("failed to evaluate watched node: %w", err)
	}
	ln, ok := app.session.Scope.Get(id)
	if !ok {
		return nil, fmt.Errorf("watched node '%s' is not live", id)
	}
	return ln, nil
}

func (app *App) openSink(ctx context.Context) (publish.Sink, error) {
	if app.sink != nil {
		return app.sink, nil
	}
	if app.config.PublishURL == "" {
		return publish.LogSink{}, nil
	}
	p, err := publish.Dial(ctx, publish.Config{
		URL:       app.config.PublishURL,
		Namespace: app.config.PublishNamespace,
		Event:     app.config.PublishEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to preview server: %w", err)
	}
	return p, nil
}

func update(id nodeid.ScopedID, version uint64, v any) publish.Update {
	return publish.Update{Graph: id.Graph, Node: id.Node, Version: version, Value: v}
}
