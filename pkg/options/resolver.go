package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	opts "github.com/goliatone/go-options"
	layering "github.com/goliatone/go-options/layering"
)

// Snapshot captures the immutable payload associated with a scope layer.
type Snapshot struct {
	Scope      opts.Scope
	Data       map[string]any
	SnapshotID string
}

// Resolver wraps a go-options Options value exposing typed helpers.
type Resolver struct {
	options *opts.Options[map[string]any]
	keys    []string
}

var (
	// ErrNoSnapshots signals that at least one scope snapshot must be provided.
	ErrNoSnapshots = errors.New("options: at least one snapshot is required")
)

// Editor configuration scopes, lowest priority first.
var (
	ScopeDefaults = opts.NewScope("defaults", opts.ScopePrioritySystem-1000, opts.WithScopeLabel("Defaults"))
	ScopeDataType = opts.NewScope("datatype", opts.ScopePrioritySystem, opts.WithScopeLabel("Data type"))
	ScopeProperty = opts.NewScope("property", opts.ScopePriorityTenant, opts.WithScopeLabel("Property"))
)

// NewResolver merges the provided scope snapshots ordered by their scope
// priority and returns a resolver exposing trace helpers.
func NewResolver(snapshots ...Snapshot) (*Resolver, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	seen := map[string]struct{}{}
	var keys []string
	layers := make([]opts.Layer[map[string]any], 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.Scope.Name == "" {
			return nil, fmt.Errorf("options: snapshot scope name is required")
		}
		layerOpts := []opts.LayerOption[map[string]any]{}
		if snap.SnapshotID != "" {
			layerOpts = append(layerOpts, opts.WithSnapshotID[map[string]any](snap.SnapshotID))
		}
		payload := cloneMap(snap.Data)
		if payload == nil {
			payload = map[string]any{}
		}
		for key := range payload {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
		layers = append(layers, opts.NewLayer(snap.Scope, payload, layerOpts...))
	}
	sort.Strings(keys)

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return nil, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, err
	}
	return &Resolver{options: merged, keys: keys}, nil
}

// Keys lists every top-level key contributed by any layer.
func (r *Resolver) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Resolve fetches the value stored at path and returns the accompanying trace.
func (r *Resolver) Resolve(path string) (any, opts.Trace, error) {
	if r == nil || r.options == nil {
		return nil, opts.Trace{Path: path}, fmt.Errorf("options: resolver not initialised")
	}
	return r.options.ResolveWithTrace(path)
}

// ResolveBool resolves the value at path and ensures it is a boolean.
// "1"/"0" strings and numbers are accepted since editor configuration
// often stores toggles that way.
func (r *Resolver) ResolveBool(path string) (bool, opts.Trace, error) {
	value, trace, err := r.Resolve(path)
	if err != nil {
		return false, trace, err
	}
	b, ok := asBool(value)
	if !ok {
		return false, trace, fmt.Errorf("options: path %s is not a boolean", path)
	}
	return b, trace, nil
}

// ResolveInt resolves the value at path as an integer.
func (r *Resolver) ResolveInt(path string) (int, opts.Trace, error) {
	value, trace, err := r.Resolve(path)
	if err != nil {
		return 0, trace, err
	}
	n, ok := asInt(value)
	if !ok {
		return 0, trace, fmt.Errorf("options: path %s is not an integer", path)
	}
	return n, trace, nil
}

// ResolveString resolves the value at path and ensures it is a string.
func (r *Resolver) ResolveString(path string) (string, opts.Trace, error) {
	value, trace, err := r.Resolve(path)
	if err != nil {
		return "", trace, err
	}
	str, ok := value.(string)
	if !ok {
		return "", trace, fmt.Errorf("options: path %s is not a string", path)
	}
	return str, trace, nil
}

// ResolveStringSlice resolves the value at path and converts it into []string.
func (r *Resolver) ResolveStringSlice(path string) ([]string, opts.Trace, error) {
	value, trace, err := r.Resolve(path)
	if err != nil {
		return nil, trace, err
	}
	out, ok := asStrings(value)
	if !ok {
		return nil, trace, fmt.Errorf("options: path %s is not a string slice", path)
	}
	return out, trace, nil
}

// Flatten resolves every known top-level key into a plain map.
func (r *Resolver) Flatten() (map[string]any, error) {
	out := make(map[string]any, len(r.Keys()))
	for _, key := range r.Keys() {
		value, _, err := r.Resolve(key)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// MergeConfiguration layers editor configuration: defaults, then the data
// type configuration, then property overrides.
func MergeConfiguration(defaults, dataType, property map[string]any) (map[string]any, error) {
	resolver, err := NewResolver(
		Snapshot{Scope: ScopeDefaults, Data: defaults},
		Snapshot{Scope: ScopeDataType, Data: dataType},
		Snapshot{Scope: ScopeProperty, Data: property},
	)
	if err != nil {
		return nil, err
	}
	return resolver.Flatten()
}

// Bool reads a flattened configuration toggle. Missing or unparsable values
// report false.
func Bool(values map[string]any, key string) (bool, bool) {
	value, ok := values[key]
	if !ok {
		return false, false
	}
	return asBool(value)
}

// Int reads a flattened configuration integer.
func Int(values map[string]any, key string) (int, bool) {
	value, ok := values[key]
	if !ok {
		return 0, false
	}
	return asInt(value)
}

// Float reads a flattened configuration number.
func Float(values map[string]any, key string) (float64, bool) {
	value, ok := values[key]
	if !ok {
		return 0, false
	}
	return toFloat(value)
}

// String reads a flattened configuration string.
func String(values map[string]any, key string) (string, bool) {
	str, ok := values[key].(string)
	return str, ok
}

// Strings reads a flattened configuration list of strings.
func Strings(values map[string]any, key string) ([]string, bool) {
	value, ok := values[key]
	if !ok {
		return nil, false
	}
	return asStrings(value)
}

func asBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true":
			return true, true
		case "0", "false", "":
			return false, true
		}
		return false, false
	default:
		n, ok := toFloat(value)
		return n != 0, ok
	}
}

func asInt(value any) (int, bool) {
	if str, ok := value.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(str))
		return n, err == nil
	}
	n, ok := toFloat(value)
	if !ok || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

func asStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = str
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return layering.Clone(src)
}
