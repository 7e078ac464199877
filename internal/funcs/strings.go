package funcs

import (
	"github.com/vk/framegraph/internal/registry"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Strings registers the string helpers.
type Strings struct{}

// Register implements registry.Module.
func (Strings) Register(r *registry.Registry) {
	r.Register("upper", FromCty(stdlib.UpperFunc))
	r.Register("lower", FromCty(stdlib.LowerFunc))
	r.Register("format", FromCty(stdlib.FormatFunc))
}
