package funcs

import (
	"maps"

	"github.com/vk/framegraph/internal/registry"
)

// ObjectNames lists the transforms that can be chained on an object, in
// chain order.
var ObjectNames = []string{"translate", "rotate", "scale", "color", "render"}

// Objects registers the object constructors and transforms. render is only
// registered when Renderer is set.
type Objects struct {
	Renderer *Renderer
}

// Register implements registry.Module.
func (o Objects) Register(r *registry.Registry) {
	r.RegisterFunc("box", Box)
	r.RegisterFunc("sphere", Sphere)
	r.RegisterFunc("translate", Translate)
	r.RegisterFunc("rotate", Rotate)
	r.RegisterFunc("scale", Scale)
	r.RegisterFunc("color", Color)
	if o.Renderer != nil {
		r.RegisterFunc("render", o.Renderer.Render)
	}
}

// Box describes a box of the given size.
func Box(width, height, depth float64) map[string]any {
	return map[string]any{
		"type": "box",
		"size": []any{width, height, depth},
	}
}

// Sphere describes a sphere of the given radius.
func Sphere(radius float64) map[string]any {
	return map[string]any{
		"type":   "sphere",
		"radius": radius,
	}
}

// Translate returns a copy of obj positioned at x, y, z.
func Translate(obj map[string]any, x, y, z float64) map[string]any {
	return with(obj, "position", []any{x, y, z})
}

// Rotate returns a copy of obj with the given Euler angles in radians.
func Rotate(obj map[string]any, x, y, z float64) map[string]any {
	return with(obj, "rotation", []any{x, y, z})
}

// Scale returns a copy of obj with the given per-axis scale.
func Scale(obj map[string]any, x, y, z float64) map[string]any {
	return with(obj, "scale", []any{x, y, z})
}

// Color returns a copy of obj with the given color, e.g. "#ff8800".
func Color(obj map[string]any, color string) map[string]any {
	return with(obj, "color", color)
}

func with(obj map[string]any, key string, v any) map[string]any {
	out := maps.Clone(obj)
	if out == nil {
		out = make(map[string]any, 1)
	}
	out[key] = v
	return out
}
