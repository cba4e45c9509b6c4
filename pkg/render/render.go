package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"strings"
	"sync"

	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/pipeline"
	gotemplate "github.com/goliatone/go-template"
)

const (
	DefaultPathToPartials   = "views/partials/stackedcontent/"
	DefaultContainerPartial = "StackedContentContainer"
	DefaultPartialExtension = ".html"
)

var (
	ErrFilesRequired     = errors.New("render: template filesystem is required")
	ErrConverterRequired = errors.New("render: converter is required")
	ErrRendererConfig    = errors.New("render: renderer configuration is incomplete")
)

// Config locates the partial templates. PathToPartials is resolved inside
// the renderer's filesystem: a leading slash is dropped, so "/views/x" and
// "views/x" name the same directory.
type Config struct {
	PathToPartials   string
	ContainerPartial string
	PartialExtension string
}

// Normalize fills defaults and prepends a missing dot to the extension.
func (c Config) Normalize() Config {
	if strings.TrimSpace(c.PathToPartials) == "" {
		c.PathToPartials = DefaultPathToPartials
	}
	c.PathToPartials = partialDir(c.PathToPartials)
	if strings.TrimSpace(c.ContainerPartial) == "" {
		c.ContainerPartial = DefaultContainerPartial
	}
	ext := strings.TrimSpace(c.PartialExtension)
	switch {
	case ext == "":
		ext = DefaultPartialExtension
	case !strings.HasPrefix(ext, "."):
		ext = "." + ext
	}
	c.PartialExtension = ext
	return c
}

// Dependencies wires the renderer collaborators.
type Dependencies struct {
	Files     fs.FS
	Converter *pipeline.Converter
	Logger    logger.Logger
}

// Renderer renders stored compound values through per element type partials.
type Renderer struct {
	files     fs.FS
	converter *pipeline.Converter
	logger    logger.Logger
	cfg       Config

	renderMu sync.Mutex
	engine   *gotemplate.Engine
}

// New builds a renderer. Extra options are forwarded to go-template.
func New(deps Dependencies, cfg Config, opts ...gotemplate.Option) (*Renderer, error) {
	if deps.Files == nil {
		return nil, ErrFilesRequired
	}
	if deps.Converter == nil {
		return nil, ErrConverterRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	rendererOpts := append([]gotemplate.Option{gotemplate.WithBaseDir(".")}, opts...)
	engine, err := gotemplate.NewRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRendererConfig, err)
	}
	return &Renderer{
		files:     deps.Files,
		converter: deps.Converter,
		logger:    deps.Logger,
		cfg:       cfg.Normalize(),
		engine:    engine,
	}, nil
}

// Request describes one render call.
type Request struct {
	// Value is the stored compound value.
	Value string
	// PathToPartials overrides the configured partial directory.
	PathToPartials string
	// ViewData is merged into every template context.
	ViewData map[string]any
}

// PartialPath returns the partial file for an element type alias.
func (r *Renderer) PartialPath(dir, alias string) string {
	return path.Join(r.dir(dir), alias+r.cfg.PartialExtension)
}

func (r *Renderer) dir(override string) string {
	if strings.TrimSpace(override) == "" {
		return r.cfg.PathToPartials
	}
	return partialDir(override)
}

// partialDir turns a configured directory into an fs.FS path.
func partialDir(dir string) string {
	dir = strings.ReplaceAll(strings.TrimSpace(dir), `\`, "/")
	dir = path.Clean("/" + dir)
	dir = strings.TrimPrefix(dir, "/")
	if dir == "" {
		return "."
	}
	return dir
}

// Render renders every element in order, each followed by a newline.
// Elements without a partial are skipped and logged. When the container
// partial exists it wraps every element and receives the rendered element as
// content and the partial path as partial.
func (r *Renderer) Render(ctx context.Context, req Request) (string, error) {
	elements, err := r.converter.Elements(ctx, req.Value)
	if err != nil {
		return "", err
	}
	return r.RenderElements(ctx, elements, req)
}

// RenderSingle renders a single item value.
func (r *Renderer) RenderSingle(ctx context.Context, req Request) (string, error) {
	element, err := r.converter.ConvertSingle(ctx, req.Value)
	if err != nil || element == nil {
		return "", err
	}
	return r.RenderElements(ctx, []pipeline.Element{*element}, req)
}

// RenderElements renders already converted elements.
func (r *Renderer) RenderElements(ctx context.Context, elements []pipeline.Element, req Request) (string, error) {
	if len(elements) == 0 {
		return "", nil
	}
	dir := r.dir(req.PathToPartials)
	container, hasContainer, err := r.read(path.Join(dir, r.cfg.ContainerPartial+r.cfg.PartialExtension))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, element := range elements {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		partial := r.PartialPath(dir, element.Schema.Alias)
		body, ok, err := r.read(partial)
		if err != nil {
			return "", err
		}
		if !ok {
			r.logger.Info("partial not found, create it or point rendering.path_to_partials at the right directory",
				logger.Field{Key: "partial", Value: partial},
				logger.Field{Key: "element_type", Value: element.Schema.Alias},
			)
			continue
		}

		data := r.context(element, req.ViewData)
		out, err := r.renderString(body, data)
		if err != nil {
			return "", fmt.Errorf("render: %s: %w", partial, err)
		}
		if hasContainer {
			data["content"] = out
			data["partial"] = partial
			out, err = r.renderString(container, data)
			if err != nil {
				return "", fmt.Errorf("render: container: %w", err)
			}
		}
		sb.WriteString(out)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (r *Renderer) context(element pipeline.Element, viewData map[string]any) map[string]any {
	data := maps.Clone(viewData)
	if data == nil {
		data = map[string]any{}
	}
	data["item"] = map[string]any{
		"index":       element.Index,
		"key":         element.Key.String(),
		"name":        element.Name,
		"elementType": element.Schema.Alias,
		"values":      element.Values(),
	}
	return data
}

func (r *Renderer) read(name string) (string, bool, error) {
	body, err := fs.ReadFile(r.files, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		if errors.Is(err, fs.ErrInvalid) {
			r.logger.Warn("partial path is not valid for the template filesystem",
				logger.Field{Key: "partial", Value: name},
				logger.Field{Key: "error", Value: err},
			)
			return "", false, nil
		}
		return "", false, fmt.Errorf("render: read %s: %w", name, err)
	}
	return string(body), true, nil
}

func (r *Renderer) renderString(tpl string, data map[string]any) (string, error) {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()
	return r.engine.RenderString(tpl, data)
}
