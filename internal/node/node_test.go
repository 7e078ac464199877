package node

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValue(t *testing.T) {
	d := NewValue("a", 3)
	assert.Equal(t, "a", d.ID)
	assert.Equal(t, Value, d.Kind)
	assert.Equal(t, Literal{Value: 3}, d.Payload)
	assert.Empty(t, d.UUID)
	assert.NoError(t, d.Check())
	assert.False(t, d.IsExecutable())
	assert.False(t, d.IsExternal())
}

func TestNewValue_WithUUID(t *testing.T) {
	id := NewUUID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	d := NewValue("a", "x", WithUUID(id))
	assert.Equal(t, id, d.UUID)
}

func TestNewRef(t *testing.T) {
	t.Run("external effect", func(t *testing.T) {
		d, err := NewRef("f", "extern.frame", nil)
		require.NoError(t, err)
		assert.Equal(t, Ref, d.Kind)
		assert.True(t, d.IsExternal())
		assert.Equal(t, External{Ref: "extern.frame"}, d.Payload)
		assert.NoError(t, d.Check())
	})

	t.Run("executable with plain func", func(t *testing.T) {
		d, err := NewRef("c", ExecutableRef, func(a, b int) int { return a + b })
		require.NoError(t, err)
		require.True(t, d.IsExecutable())

		exec := d.Payload.(Executable)
		assert.Equal(t, 2, exec.Arity)
		out, err := exec.Call(context.Background(), []any{3, 4})
		require.NoError(t, err)
		assert.Equal(t, 7, out)
	})

	t.Run("executable without callable", func(t *testing.T) {
		_, err := NewRef("c", ExecutableRef, 42)
		assert.ErrorIs(t, err, ErrMissingCallable)

		_, err = NewRef("c", ExecutableRef, nil)
		assert.ErrorIs(t, err, ErrMissingCallable)
	})

	t.Run("empty ref", func(t *testing.T) {
		_, err := NewRef("c", "", nil)
		assert.Error(t, err)
	})
}

func TestCheck_HandBuiltDescriptions(t *testing.T) {
	d := &Description{ID: "c", Kind: Ref, Ref: ExecutableRef}
	assert.ErrorIs(t, d.Check(), ErrMissingCallable)

	d = &Description{ID: "c", Kind: Ref, Ref: ExecutableRef, Payload: Executable{}}
	assert.ErrorIs(t, d.Check(), ErrMissingCallable)

	d = &Description{ID: "v", Kind: Ref, Ref: "extern.frame", Payload: Literal{Value: 1}}
	assert.Error(t, d.Check())

	d = &Description{Kind: Value, Payload: Literal{}}
	assert.Error(t, d.Check())
}

func TestExecutable_Arity(t *testing.T) {
	exec := Executable{Fn: Func(func(_ context.Context, args []any) (any, error) { return len(args), nil }), Arity: 2}

	_, err := exec.Call(context.Background(), []any{1})
	assert.ErrorIs(t, err, ErrArity)

	out, err := exec.Call(context.Background(), []any{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	variadic := Executable{Fn: exec.Fn, Arity: -1}
	out, err = variadic.Call(context.Background(), []any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestAsExecutable(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		payload any
		args    []any
		want    any
	}{
		{
			name:    "func with args slice",
			payload: func(args []any) (any, error) { return len(args), nil },
			args:    []any{1, 2},
			want:    2,
		},
		{
			name:    "func with context and args slice",
			payload: func(_ context.Context, args []any) (any, error) { return args[0], nil },
			args:    []any{"x"},
			want:    "x",
		},
		{
			name:    "Func adapter",
			payload: Func(func(_ context.Context, _ []any) (any, error) { return "ok", nil }),
			want:    "ok",
		},
		{
			name:    "reflect numeric conversion",
			payload: func(f float64) float64 { return f * 2 },
			args:    []any{2},
			want:    4.0,
		},
		{
			name:    "reflect variadic",
			payload: func(prefix string, xs ...int) int { return len(prefix) + len(xs) },
			args:    []any{"ab", 1, 2, 3},
			want:    5,
		},
		{
			name:    "reflect with context",
			payload: func(ctx context.Context, s string) string { return s + "!" },
			args:    []any{"hi"},
			want:    "hi!",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exec, err := AsExecutable(tc.payload)
			require.NoError(t, err)
			got, err := exec.Call(ctx, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReflect_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Reflect("not a func")
	assert.ErrorIs(t, err, ErrMissingCallable)

	_, err = Reflect(func() (int, int) { return 0, 0 })
	assert.Error(t, err)

	boom := errors.New("boom")
	exec, err := Reflect(func(int) (int, error) { return 0, boom })
	require.NoError(t, err)
	_, err = exec.Call(ctx, []any{1})
	assert.ErrorIs(t, err, boom)

	exec, err = Reflect(func(s string) string { return s })
	require.NoError(t, err)
	_, err = exec.Call(ctx, []any{12})
	assert.ErrorContains(t, err, "cannot use int as string")

	exec, err = Reflect(func() error { return boom })
	require.NoError(t, err)
	_, err = exec.Call(ctx, nil)
	assert.ErrorIs(t, err, boom)
}

func TestReflect_NumericConversion(t *testing.T) {
	ctx := context.Background()
	toInt, err := Reflect(func(a int) int { return a })
	require.NoError(t, err)
	toUint8, err := Reflect(func(a uint8) uint8 { return a })
	require.NoError(t, err)
	toFloat32, err := Reflect(func(a float32) float32 { return a })
	require.NoError(t, err)
	toInt8, err := Reflect(func(a int8) int8 { return a })
	require.NoError(t, err)

	testCases := []struct {
		name    string
		exec    Executable
		arg     any
		want    any
		wantErr string
	}{
		{name: "integral float to int", exec: toInt, arg: 3.0, want: 3},
		{name: "fractional float to int", exec: toInt, arg: 2.7, wantErr: "not an integer"},
		{name: "NaN to int", exec: toInt, arg: math.NaN(), wantErr: "not an integer"},
		{name: "huge float to int", exec: toInt, arg: 1e30, wantErr: "overflows"},
		{name: "uint64 beyond int", exec: toInt, arg: uint64(math.MaxUint64), wantErr: "overflows"},
		{name: "int to int8 overflow", exec: toInt8, arg: 200, wantErr: "overflows"},
		{name: "negative int to int8", exec: toInt8, arg: -128, want: int8(-128)},
		{name: "float to uint8", exec: toUint8, arg: 255.0, want: uint8(255)},
		{name: "negative float to uint8", exec: toUint8, arg: -1.0, wantErr: "negative value"},
		{name: "negative int to uint8", exec: toUint8, arg: -1, wantErr: "negative value"},
		{name: "float overflows uint8", exec: toUint8, arg: 300.0, wantErr: "overflows"},
		{name: "int overflows uint8", exec: toUint8, arg: 300, wantErr: "overflows"},
		{name: "float64 to float32", exec: toFloat32, arg: 1.5, want: float32(1.5)},
		{name: "float64 overflows float32", exec: toFloat32, arg: 1e300, wantErr: "overflows"},
		{name: "int to float32", exec: toFloat32, arg: 7, want: float32(7)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.exec.Call(ctx, []any{tc.arg})
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, "argument 0")
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
