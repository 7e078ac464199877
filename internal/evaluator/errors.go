package evaluator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/framegraph/internal/nodeid"
)

// ErrCyclicGraph is matched by every *CycleError.
var ErrCyclicGraph = errors.New("cyclic graph")

// CycleError reports the chain of nodes that led back to itself, or that
// exceeded the depth limit when Limit is set.
type CycleError struct {
	Chain []nodeid.ScopedID
	Limit int
}

func (e *CycleError) Error() string {
	if e.Limit > 0 {
		last := nodeid.ScopedID{}
		if len(e.Chain) > 0 {
			last = e.Chain[len(e.Chain)-1]
		}
		return fmt.Sprintf("%s: evaluation depth limit %d exceeded at '%s'", ErrCyclicGraph, e.Limit, last)
	}
	parts := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		parts[i] = id.String()
	}
	return fmt.Sprintf("%s: %s", ErrCyclicGraph, strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicGraph
}
