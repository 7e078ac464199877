package watch

import (
	"sort"
	"sync"
)

// Hub holds the watches attached to one live node.
type Hub struct {
	target string

	mu      sync.Mutex
	nextID  uint64
	watches map[uint64]*Watch
}

// NewHub creates an empty hub for the node identified by target.
func NewHub(target string) *Hub {
	return &Hub{
		target:  target,
		watches: make(map[uint64]*Watch),
	}
}

// Target returns the id of the watched node.
func (h *Hub) Target() string {
	return h.target
}

// Subscribe registers a new Idle watch. It only sees values published after
// this call.
func (h *Hub) Subscribe() *Watch {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	w := newWatch(h, h.nextID)
	h.watches[w.id] = w
	return w
}

// Publish hands v to every active watch.
func (h *Hub) Publish(v any) {
	h.PublishVersion(v, 0)
}

// PublishVersion hands v, written as version, to every active watch. A
// watch ignores versions not newer than the newest it has accepted.
func (h *Hub) PublishVersion(v any, version uint64) {
	d := Delivery{Value: v, Version: version}
	for _, w := range h.snapshot() {
		w.deliver(d)
	}
}

// StopAll stops every watch currently attached. It is idempotent.
func (h *Hub) StopAll() {
	for _, w := range h.snapshot() {
		w.Stop()
	}
}

// Len returns the number of active watches.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watches)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watches, id)
}

// snapshot copies the active watches in subscription order so delivery
// happens without holding the hub lock.
func (h *Hub) snapshot() []*Watch {
	h.mu.Lock()
	defer h.mu.Unlock()
	ws := make([]*Watch, 0, len(h.watches))
	for _, w := range h.watches {
		ws = append(ws, w)
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].id < ws[j].id })
	return ws
}
