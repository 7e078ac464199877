package node

import (
	"context"
	"fmt"
	"math"
	"reflect"
)

// Callable is the computation of an executable node. It receives the values
// of the node's dependencies in ascending argument-slot order.
type Callable interface {
	Call(ctx context.Context, args []any) (any, error)
}

// Func adapts an ordinary function to the Callable interface.
type Func func(ctx context.Context, args []any) (any, error)

// Call implements Callable.
func (f Func) Call(ctx context.Context, args []any) (any, error) {
	return f(ctx, args)
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// reflectCallable calls an arbitrary Go function by reflection.
type reflectCallable struct {
	fn       reflect.Value
	takesCtx bool
}

// Reflect adapts a plain Go function, e.g. func(a, b int) int, into an
// Executable. The function may take a leading context.Context and may return
// nothing, a value, an error, or a value and an error. Numeric arguments are
// converted to the parameter type; anything else must be assignable.
func Reflect(fn any) (Executable, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Executable{}, fmt.Errorf("%w: payload of type %T is not a function", ErrMissingCallable, fn)
	}

	t := v.Type()
	switch t.NumOut() {
	case 0:
	case 1:
	case 2:
		if !t.Out(1).Implements(errorType) {
			return Executable{}, fmt.Errorf("function %s: second result must be an error", t)
		}
	default:
		return Executable{}, fmt.Errorf("function %s: too many results", t)
	}

	rc := &reflectCallable{
		fn:       v,
		takesCtx: t.NumIn() > 0 && t.In(0) == contextType,
	}

	arity := t.NumIn()
	if rc.takesCtx {
		arity--
	}
	if t.IsVariadic() {
		arity = -1
	}
	return Executable{Fn: rc, Arity: arity}, nil
}

// Call implements Callable.
func (rc *reflectCallable) Call(ctx context.Context, args []any) (any, error) {
	t := rc.fn.Type()

	offset := 0
	in := make([]reflect.Value, 0, len(args)+1)
	if rc.takesCtx {
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}

	fixed := t.NumIn() - offset
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: expected at least %d, got %d", ErrArity, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrArity, fixed, len(args))
	}

	for i, arg := range args {
		var target reflect.Type
		if i < fixed {
			target = t.In(i + offset)
		} else {
			target = t.In(t.NumIn() - 1).Elem()
		}
		av, err := convertArg(arg, target)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, av)
	}

	out := rc.fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0).Implements(errorType) {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		return out[0].Interface(), asError(out[1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// convertArg produces a reflect.Value of the target type from a dynamic
// argument value.
func convertArg(arg any, target reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(target), nil
	}
	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(target) {
		return av, nil
	}
	if isNumeric(av.Kind()) && isNumeric(target.Kind()) {
		if err := checkNumber(av, target); err != nil {
			return reflect.Value{}, err
		}
		return av.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, target)
}

// checkNumber reports whether av converts to target without changing its
// value. Fractions, negative unsigned values and overflow are rejected.
func checkNumber(av reflect.Value, target reflect.Type) error {
	zero := reflect.Zero(target)
	switch {
	case isInt(target.Kind()):
		var n int64
		switch {
		case isInt(av.Kind()):
			n = av.Int()
		case isUint(av.Kind()):
			if av.Uint() > math.MaxInt64 {
				return fmt.Errorf("%v overflows %s", av.Interface(), target)
			}
			n = int64(av.Uint())
		default:
			f := av.Float()
			if f != math.Trunc(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%v is not an integer, cannot use as %s", f, target)
			}
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return fmt.Errorf("%v overflows %s", f, target)
			}
			n = int64(f)
		}
		if zero.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, target)
		}
	case isUint(target.Kind()):
		var n uint64
		switch {
		case isUint(av.Kind()):
			n = av.Uint()
		case isInt(av.Kind()):
			if av.Int() < 0 {
				return fmt.Errorf("negative value %d cannot be used as %s", av.Int(), target)
			}
			n = uint64(av.Int())
		default:
			f := av.Float()
			if f != math.Trunc(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%v is not an integer, cannot use as %s", f, target)
			}
			if f < 0 {
				return fmt.Errorf("negative value %v cannot be used as %s", f, target)
			}
			if f >= math.MaxUint64 {
				return fmt.Errorf("%v overflows %s", f, target)
			}
			n = uint64(f)
		}
		if zero.OverflowUint(n) {
			return fmt.Errorf("%d overflows %s", n, target)
		}
	default:
		if isFloat(av.Kind()) && zero.OverflowFloat(av.Float()) {
			return fmt.Errorf("%v overflows %s", av.Float(), target)
		}
	}
	return nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
