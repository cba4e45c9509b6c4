package validation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"regexp"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/editors"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/schema"
)

const (
	MessageNull    = "cannot be null"
	MessageEmpty   = "cannot be empty"
	MessagePattern = "is invalid, it does not match the correct pattern"
)

var (
	// ErrMalformedValue is returned when the value is not a JSON array of
	// objects. Rule violations are never returned as errors.
	ErrMalformedValue = errors.New("validation: malformed value")
	// ErrResolverRequired is returned when no schema resolver is configured.
	ErrResolverRequired = errors.New("validation: schema resolver is required")
	// ErrLookupFailed is returned when a record's element type could not be
	// read, so the value was not validated.
	ErrLookupFailed = errors.New("validation: element type lookup failed")
)

// Result is one rule violation.
type Result struct {
	// Index is the zero-based record position.
	Index   int    `json:"index"`
	Alias   string `json:"alias"`
	Message string `json:"message"`
}

// SchemaResolver resolves the schema of a record.
type SchemaResolver interface {
	Resolve(ctx context.Context, rec *content.Record) (schema.Resolution, bool, error)
}

// Dependencies wires the validator collaborators.
type Dependencies struct {
	Resolver SchemaResolver
	Editors  *editors.Registry
	Logger   logger.Logger
}

// Validator walks a compound value and reports rule violations.
type Validator struct {
	resolver SchemaResolver
	editors  *editors.Registry
	logger   logger.Logger

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func New(deps Dependencies) (*Validator, error) {
	if deps.Resolver == nil {
		return nil, ErrResolverRequired
	}
	if deps.Editors == nil {
		deps.Editors = editors.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Validator{
		resolver: deps.Resolver,
		editors:  deps.Editors,
		logger:   deps.Logger,
		patterns: make(map[string]*regexp.Regexp),
	}, nil
}

// Validate decodes raw and returns a lazy sequence of violations. Blank input
// has nothing to validate. Every record is resolved before the sequence is
// returned, so a storage failure is reported as an error rather than as a
// clean result.
func (v *Validator) Validate(ctx context.Context, raw string) (iter.Seq[Result], error) {
	if content.IsBlankText(raw) {
		return func(func(Result) bool) {}, nil
	}
	list, err := content.ParseList(raw)
	if err != nil {
		return nil, goerrors.Wrap(ErrMalformedValue, goerrors.CategoryBadInput, err.Error())
	}
	return v.ValidateList(ctx, list)
}

type resolved struct {
	index  int
	record *content.Record
	schema *schema.Schema
}

// ValidateList is Validate for decoded records.
func (v *Validator) ValidateList(ctx context.Context, list content.List) (iter.Seq[Result], error) {
	items := make([]resolved, 0, len(list))
	for i, rec := range list {
		res, ok, err := v.resolver.Resolve(ctx, rec)
		if err != nil {
			v.logger.Error("element type lookup failed",
				logger.Field{Key: "index", Value: i},
				logger.Field{Key: "error", Value: err},
			)
			return nil, goerrors.Wrap(errors.Join(ErrLookupFailed, err), goerrors.CategoryInternal,
				fmt.Sprintf("item %d could not be validated", i+1)).WithTextCode("LOOKUP_FAILED")
		}
		if !ok {
			continue
		}
		items = append(items, resolved{index: i, record: rec, schema: res.Schema})
	}

	return func(yield func(Result) bool) {
		for _, item := range items {
			for _, field := range item.schema.Fields() {
				for _, msg := range v.checkField(ctx, item.record, field) {
					if !yield(Result{Index: item.index, Alias: field.Alias, Message: prefix(item.index, field) + msg}) {
						return
					}
				}
			}
		}
	}, nil
}

// Collect drains a sequence into a slice.
func Collect(seq iter.Seq[Result]) []Result {
	var out []Result
	for r := range seq {
		out = append(out, r)
	}
	return out
}

func (v *Validator) checkField(ctx context.Context, rec *content.Record, field schema.Field) []string {
	value, present := rec.Get(field.Alias)
	var out []string

	if editor, ok := v.editors.Lookup(field.Kind); ok {
		for _, rule := range editor.Validators() {
			out = append(out, rule.Validate(ctx, value, field)...)
		}
	}

	if field.Mandatory {
		switch {
		case !present || value.IsNull():
			out = append(out, MessageNull)
		case value.IsEmpty():
			out = append(out, MessageEmpty)
		}
	}

	if field.Pattern != "" && present && !value.IsBlank() {
		re, err := v.pattern(field.Pattern)
		if err != nil {
			v.logger.Warn("invalid validation pattern",
				logger.Field{Key: "field", Value: field.Alias},
				logger.Field{Key: "pattern", Value: field.Pattern},
				logger.Field{Key: "error", Value: err},
			)
		} else if !re.MatchString(value.Text()) {
			out = append(out, MessagePattern)
		}
	}
	return out
}

func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	v.mu.RLock()
	re, ok := v.patterns[expr]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.patterns[expr] = re
	v.mu.Unlock()
	return re, nil
}

func prefix(index int, field schema.Field) string {
	return fmt.Sprintf("Item %d '%s' ", index+1, field.Name)
}

// AsError folds results into a go-errors validation error, nil when there
// are none. Field names take the form items[<index>].<alias>.
func AsError(results []Result) error {
	if len(results) == 0 {
		return nil
	}
	fields := make([]goerrors.FieldError, len(results))
	for i, r := range results {
		fields[i] = goerrors.FieldError{
			Field:   fmt.Sprintf("items[%d].%s", r.Index, r.Alias),
			Message: r.Message,
		}
	}
	return goerrors.NewValidation("stacked content is invalid", fields...)
}
