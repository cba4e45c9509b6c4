package editors

import (
	"sort"
	"strings"
	"sync"
)

// Registry maps editor kinds to editors. Lookups ignore case.
type Registry struct {
	mu      sync.RWMutex
	editors map[string]Editor
}

// NewRegistry builds a registry with the supplied editors. Editors without a
// kind are skipped.
func NewRegistry(editors ...Editor) *Registry {
	reg := &Registry{editors: make(map[string]Editor)}
	for _, e := range editors {
		_ = reg.Register(e)
	}
	return reg
}

// NewDefaultRegistry returns a registry holding the built-in editors.
func NewDefaultRegistry() *Registry {
	return NewRegistry(Builtins()...)
}

// Register adds or replaces the editor for its kind.
func (r *Registry) Register(e Editor) error {
	if e == nil {
		return ErrKindRequired
	}
	key := normalizeKind(e.Kind())
	if key == "" {
		return ErrKindRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editors[key] = e
	return nil
}

// MustRegister panics when the editor cannot be registered.
func (r *Registry) MustRegister(editors ...Editor) *Registry {
	for _, e := range editors {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the editor registered for kind.
func (r *Registry) Lookup(kind string) (Editor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.editors[normalizeKind(kind)]
	return e, ok
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.editors))
	for kind := range r.editors {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
