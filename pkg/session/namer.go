package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-stacked-content/pkg/content"
	gotemplate "github.com/goliatone/go-template"
)

// DefaultNameTemplate numbers records from one.
const DefaultNameTemplate = "Item {{ index|add:1 }}"

// Namer computes record labels from a pongo2 template. The template sees the
// zero-based index, the element type name as elementType and every business
// field by alias.
type Namer struct {
	mu       sync.Mutex
	renderer *gotemplate.Engine
	template string
}

// NewNamer compiles nothing up front; a blank template uses
// DefaultNameTemplate.
func NewNamer(template string, opts ...gotemplate.Option) (*Namer, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultNameTemplate
	}
	rendererOpts := append([]gotemplate.Option{gotemplate.WithBaseDir(".")}, opts...)
	renderer, err := gotemplate.NewRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("session: name renderer: %w", err)
	}
	return &Namer{renderer: renderer, template: template}, nil
}

// Name renders the label of rec at index.
func (n *Namer) Name(index int, elementType string, rec *content.Record) (string, error) {
	data := map[string]any{
		"index":       index,
		"elementType": elementType,
	}
	for alias, value := range rec.All() {
		if content.IsReserved(alias) {
			continue
		}
		data[alias] = templateValue(value)
	}

	n.mu.Lock()
	out, err := n.renderer.RenderString(n.template, data)
	n.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("session: render name: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func templateValue(v content.Value) any {
	switch v.Kind() {
	case content.KindNull:
		return nil
	case content.KindString:
		s, _ := v.AsString()
		return s
	case content.KindBool:
		b, _ := v.AsBool()
		return b
	case content.KindNumber:
		if i, ok := v.AsInt(); ok {
			return i
		}
		f, _ := v.AsFloat()
		return f
	default:
		return v.Text()
	}
}
