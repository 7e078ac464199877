package node

import (
	"context"
	"errors"
	"fmt"
)

// ErrArity is returned when an executable is called with the wrong number of arguments.
var ErrArity = errors.New("wrong number of arguments")

// Payload is the sealed variant carried by a Description.
type Payload interface {
	isPayload()
}

// Literal is the payload of a Value node.
type Literal struct {
	Value any
}

// External is the payload of a Ref node naming an effect source.
type External struct {
	Ref string
}

// Executable is the payload of a Ref node carrying the executable marker.
type Executable struct {
	Fn Callable
	// Arity is the exact number of arguments, or -1 for any.
	Arity int
}

func (Literal) isPayload()    {}
func (External) isPayload()   {}
func (Executable) isPayload() {}

// Call invokes the callable after checking the argument count.
func (e Executable) Call(ctx context.Context, args []any) (any, error) {
	if e.Fn == nil {
		return nil, ErrMissingCallable
	}
	if e.Arity >= 0 && len(args) != e.Arity {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrArity, e.Arity, len(args))
	}
	return e.Fn.Call(ctx, args)
}

// AsExecutable turns a loosely typed payload into an Executable. Accepted
// forms are Executable, Callable, func(context.Context, []any) (any, error),
// func([]any) (any, error) and any other Go func, which is adapted with
// Reflect.
func AsExecutable(payload any) (Executable, error) {
	switch p := payload.(type) {
	case nil:
		return Executable{}, ErrMissingCallable
	case Executable:
		if p.Fn == nil {
			return Executable{}, ErrMissingCallable
		}
		return p, nil
	case Callable:
		return Executable{Fn: p, Arity: -1}, nil
	case func(context.Context, []any) (any, error):
		return Executable{Fn: Func(p), Arity: -1}, nil
	case func([]any) (any, error):
		return Executable{Fn: Func(func(_ context.Context, args []any) (any, error) { return p(args) }), Arity: -1}, nil
	default:
		exec, err := Reflect(p)
		if err != nil {
			return Executable{}, err
		}
		return exec, nil
	}
}
