package node

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ExecutableRef is the ref marker of nodes whose payload is a callable.
const ExecutableRef = "@graph.executable"

// ExternPrefix is the conventional prefix of external effect refs.
const ExternPrefix = "extern."

// ErrMissingCallable is returned when an executable node has no callable payload.
var ErrMissingCallable = errors.New("missing callable")

// Kind distinguishes constant nodes from nodes that refer to something else.
type Kind int

const (
	// Value nodes carry a constant payload.
	Value Kind = iota
	// Ref nodes name an external effect or the executable marker.
	Ref
)

func (k Kind) String() string {
	switch k {
	case Value:
		return "value"
	case Ref:
		return "ref"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Description is the immutable description of a single graph node.
type Description struct {
	// ID is unique within the owning graph.
	ID string
	// Kind is Value or Ref.
	Kind Kind
	// Ref names the effect source or ExecutableRef. Empty for Value nodes.
	Ref string
	// Payload is one of Literal, External or Executable.
	Payload Payload
	// UUID is an optional external correlation id. The evaluator never reads it.
	UUID string
}

// Option customizes a Description at construction time.
type Option func(*Description)

// WithUUID attaches an external correlation id to the node.
func WithUUID(id string) Option {
	return func(d *Description) {
		d.UUID = id
	}
}

// NewUUID returns a fresh random correlation id.
func NewUUID() string {
	return uuid.NewString()
}

// NewValue creates a Value node carrying a constant payload.
func NewValue(id string, v any, opts ...Option) *Description {
	d := &Description{
		ID:      id,
		Kind:    Value,
		Payload: Literal{Value: v},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewRef creates a Ref node. When ref is ExecutableRef the payload must be
// callable (see AsExecutable), otherwise ErrMissingCallable is returned. Any
// other ref names an external effect and the payload is ignored.
func NewRef(id, ref string, payload any, opts ...Option) (*Description, error) {
	if ref == "" {
		return nil, fmt.Errorf("node '%s': ref cannot be empty", id)
	}

	d := &Description{ID: id, Kind: Ref, Ref: ref}
	if ref == ExecutableRef {
		exec, err := AsExecutable(payload)
		if err != nil {
			return nil, fmt.Errorf("node '%s': %w", id, err)
		}
		d.Payload = exec
	} else {
		d.Payload = External{Ref: ref}
	}

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewExecutable creates an executable Ref node around fn. An arity of -1
// accepts any number of arguments.
func NewExecutable(id string, fn Callable, arity int, opts ...Option) *Description {
	d := &Description{
		ID:      id,
		Kind:    Ref,
		Ref:     ExecutableRef,
		Payload: Executable{Fn: fn, Arity: arity},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsExecutable reports whether the node carries the executable marker.
func (d *Description) IsExecutable() bool {
	return d.Kind == Ref && d.Ref == ExecutableRef
}

// IsExternal reports whether the node names an external effect source.
func (d *Description) IsExternal() bool {
	return d.Kind == Ref && d.Ref != ExecutableRef
}

// Check verifies the shape invariants of the description.
func (d *Description) Check() error {
	if d.ID == "" {
		return fmt.Errorf("node id cannot be empty")
	}
	switch p := d.Payload.(type) {
	case Literal:
		if d.Kind != Value {
			return fmt.Errorf("node '%s': literal payload on a %s node", d.ID, d.Kind)
		}
	case External:
		if d.Kind != Ref || d.Ref == ExecutableRef || p.Ref != d.Ref {
			return fmt.Errorf("node '%s': external payload does not match ref %q", d.ID, d.Ref)
		}
	case Executable:
		if !d.IsExecutable() {
			return fmt.Errorf("node '%s': executable payload on non-executable ref %q", d.ID, d.Ref)
		}
		if p.Fn == nil {
			return fmt.Errorf("node '%s': %w", d.ID, ErrMissingCallable)
		}
	case nil:
		if d.IsExecutable() {
			return fmt.Errorf("node '%s': %w", d.ID, ErrMissingCallable)
		}
		return fmt.Errorf("node '%s': payload is missing", d.ID)
	}
	return nil
}
