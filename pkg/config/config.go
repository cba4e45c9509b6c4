package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config captures module-level configuration knobs. Feature packages
// (rendering, editor sessions, storage, http) pull from these nested structs.
type Config struct {
	Localization LocalizationConfig `mapstructure:"localization" json:"localization"`
	Rendering    RenderingConfig    `mapstructure:"rendering" json:"rendering"`
	Editor       EditorConfig       `mapstructure:"editor" json:"editor"`
	Schemas      SchemasConfig      `mapstructure:"schemas" json:"schemas"`
	Persistence  PersistenceConfig  `mapstructure:"persistence" json:"persistence"`
	HTTP         HTTPConfig         `mapstructure:"http" json:"http"`
}

// LocalizationConfig controls the locale used for editor notifications.
type LocalizationConfig struct {
	DefaultLocale string `mapstructure:"default_locale" json:"default_locale"`
}

// RenderingConfig locates the partial templates.
type RenderingConfig struct {
	PathToPartials   string `mapstructure:"path_to_partials" json:"path_to_partials"`
	ContainerPartial string `mapstructure:"container_partial" json:"container_partial"`
	PartialExtension string `mapstructure:"partial_extension" json:"partial_extension"`
}

// EditorConfig holds the default property editor settings.
type EditorConfig struct {
	MaxItems       int    `mapstructure:"max_items" json:"max_items"`
	MinItems       int    `mapstructure:"min_items" json:"min_items"`
	SingleItemMode bool   `mapstructure:"single_item_mode" json:"single_item_mode"`
	EnableCopy     bool   `mapstructure:"enable_copy" json:"enable_copy"`
	EnablePreview  bool   `mapstructure:"enable_preview" json:"enable_preview"`
	EnableFilter   bool   `mapstructure:"enable_filter" json:"enable_filter"`
	HideLabel      bool   `mapstructure:"hide_label" json:"hide_label"`
	NameTemplate   string `mapstructure:"name_template" json:"name_template"`
}

// SchemasConfig scopes element type caching.
type SchemasConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" json:"cache_ttl"`
}

// PersistenceConfig selects the repository backend.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// HTTPConfig configures the backoffice API.
type HTTPConfig struct {
	Addr   string `mapstructure:"addr" json:"addr"`
	Prefix string `mapstructure:"prefix" json:"prefix"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Localization: LocalizationConfig{DefaultLocale: "en"},
		Rendering: RenderingConfig{
			PathToPartials:   "views/partials/stackedcontent/",
			ContainerPartial: "StackedContentContainer",
			PartialExtension: ".html",
		},
		Editor: EditorConfig{
			NameTemplate: "Item {{ index|add:1 }}",
		},
		Schemas: SchemasConfig{
			CacheTTL: time.Minute,
		},
		Persistence: PersistenceConfig{
			Driver: DriverMemory,
			DSN:    "file::memory:?cache=shared",
		},
		HTTP: HTTPConfig{
			Addr:   ":8080",
			Prefix: "/api/stackedcontent",
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Localization.DefaultLocale == "" {
		return errors.New("localization.default_locale is required")
	}
	if c.Editor.MinItems < 0 {
		return fmt.Errorf("editor.min_items must be >= 0")
	}
	if c.Editor.MaxItems < 0 {
		return fmt.Errorf("editor.max_items must be >= 0")
	}
	if c.Editor.MaxItems > 0 && c.Editor.MinItems > c.Editor.MaxItems {
		return fmt.Errorf("editor.min_items must not exceed editor.max_items")
	}
	if c.Schemas.CacheTTL < 0 {
		return fmt.Errorf("schemas.cache_ttl must be >= 0")
	}
	switch c.Persistence.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("persistence.driver must be %q or %q, got %q", DriverMemory, DriverSQLite, c.Persistence.Driver)
	}
	if !strings.HasPrefix(c.HTTP.Prefix, "/") {
		return fmt.Errorf("http.prefix must start with /")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder to keep smoke tests meaningful.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Localization.DefaultLocale == "" {
		c.Localization.DefaultLocale = defaults.Localization.DefaultLocale
	}
	if strings.TrimSpace(c.Rendering.PathToPartials) == "" {
		c.Rendering.PathToPartials = defaults.Rendering.PathToPartials
	}
	if strings.TrimSpace(c.Rendering.ContainerPartial) == "" {
		c.Rendering.ContainerPartial = defaults.Rendering.ContainerPartial
	}
	switch ext := strings.TrimSpace(c.Rendering.PartialExtension); {
	case ext == "":
		c.Rendering.PartialExtension = defaults.Rendering.PartialExtension
	case !strings.HasPrefix(ext, "."):
		c.Rendering.PartialExtension = "." + ext
	}
	if strings.TrimSpace(c.Editor.NameTemplate) == "" {
		c.Editor.NameTemplate = defaults.Editor.NameTemplate
	}
	if c.Editor.SingleItemMode {
		c.Editor.MinItems, c.Editor.MaxItems = 1, 1
	}
	if c.Schemas.CacheTTL == 0 {
		c.Schemas.CacheTTL = defaults.Schemas.CacheTTL
	}
	c.Persistence.Driver = strings.ToLower(strings.TrimSpace(c.Persistence.Driver))
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = defaults.Persistence.Driver
	}
	if c.Persistence.DSN == "" {
		c.Persistence.DSN = defaults.Persistence.DSN
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaults.HTTP.Addr
	}
	if c.HTTP.Prefix == "" {
		c.HTTP.Prefix = defaults.HTTP.Prefix
	}
	c.HTTP.Prefix = strings.TrimRight(c.HTTP.Prefix, "/")
	if c.HTTP.Prefix == "" {
		c.HTTP.Prefix = "/"
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
