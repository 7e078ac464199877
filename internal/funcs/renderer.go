package funcs

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/vk/framegraph/internal/ctxlog"
)

// Renderer keeps the latest description of every rendered object by name.
type Renderer struct {
	mu      sync.RWMutex
	objects map[string]map[string]any
	renders int
}

// NewRenderer creates an empty renderer.
func NewRenderer() *Renderer {
	return &Renderer{objects: make(map[string]map[string]any)}
}

// Render stores obj under name and returns name. The handle is stable
// across frames so watchers should observe the object, not the render call.
func (r *Renderer) Render(ctx context.Context, obj map[string]any, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("render: object name cannot be empty")
	}
	r.mu.Lock()
	_, existed := r.objects[name]
	r.objects[name] = maps.Clone(obj)
	r.renders++
	r.mu.Unlock()

	if !existed {
		ctxlog.FromContext(ctx).Debug("Object added to scene.", "name", name, "type", obj["type"])
	}
	return name, nil
}

// Object returns a copy of the object rendered under name.
func (r *Renderer) Object(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	if !ok {
		return nil, false
	}
	return maps.Clone(obj), true
}

// Names returns the names of all rendered objects, sorted.
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Renders returns how many times Render was called.
func (r *Renderer) Renders() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renders
}
