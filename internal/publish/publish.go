package publish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/ctyconv"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the event name used when Config.Event is empty.
const DefaultEvent = "frame"

// Update is one observed value of a watched node.
type Update struct {
	Graph   string `json:"graph"`
	Node    string `json:"node"`
	Version uint64 `json:"version"`
	Value   any    `json:"value"`
}

// Payload encodes the update for the wire. The value is serialized through
// cty so that numbers and objects look the same as in graph files.
func (u Update) Payload() (map[string]any, error) {
	raw, err := ctyconv.JSON(u.Value)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", u.Graph, u.Node, err)
	}
	return map[string]any{
		"graph":   u.Graph,
		"node":    u.Node,
		"version": u.Version,
		"value":   json.RawMessage(raw),
	}, nil
}

// Sink receives updates.
type Sink interface {
	Publish(ctx context.Context, u Update) error
	Close() error
}

// Config describes the preview server connection.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Publisher is a Sink backed by a socket.io client.
type Publisher struct {
	io        *socket.Socket
	event     string
	connected atomic.Bool
}

// Dial connects to the preview server and waits until the connection is
// established, refused, or cfg.Timeout elapses.
func Dial(ctx context.Context, cfg Config) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("url", cfg.URL, "namespace", cfg.Namespace)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid preview URL '%s'", cfg.URL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	event := cfg.Event
	if event == "" {
		event = DefaultEvent
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	p := &Publisher{io: io, event: event}

	connectChan := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		p.connected.Store(true)
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.On(types.EventName("disconnect"), func(...any) {
		p.connected.Store(false)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Connecting to preview server.")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		logger.Info("Connected to preview server.", "sid", io.Id())
		return p, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Publish emits u as an event.
func (p *Publisher) Publish(ctx context.Context, u Update) error {
	if !p.connected.Load() {
		return fmt.Errorf("socket.io client is not connected")
	}
	payload, err := u.Payload()
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Emitting update.", "event", p.event, "node", u.Node, "version", u.Version)
	p.io.Emit(p.event, payload)
	return nil
}

// Close disconnects the client.
func (p *Publisher) Close() error {
	p.io.Disconnect()
	p.connected.Store(false)
	return nil
}

// LogSink writes updates to the context logger.
type LogSink struct{}

// Publish implements Sink.
func (LogSink) Publish(ctx context.Context, u Update) error {
	raw, err := ctyconv.JSON(u.Value)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", u.Graph, u.Node, err)
	}
	ctxlog.FromContext(ctx).Info("Watched node updated.", "graph", u.Graph, "node", u.Node, "version", u.Version, "value", string(raw))
	return nil
}

// Close implements Sink.
func (LogSink) Close() error {
	return nil
}
