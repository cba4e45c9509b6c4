package elementtypes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/goliatone/go-stacked-content/pkg/pipeline"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/goliatone/go-stacked-content/pkg/session"
	"github.com/google/uuid"
)

// GenericTab holds fields that do not belong to a named group.
const GenericTab = "Generic"

var (
	ErrElementTypeNotFound = errors.New("elementtypes: element type not found")
	ErrBlueprintNotFound   = errors.New("elementtypes: blueprint not found")

	errRepositoryRequired = errors.New("elementtypes: element type repository is required")
	errResolverRequired   = errors.New("elementtypes: schema resolver is required")
)

// Summary is the list projection of an element type.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Alias string    `json:"alias"`
	Icon  string    `json:"icon"`
	Tabs  []string  `json:"tabs"`
}

// Choice converts the summary to an editor session choice.
func (s Summary) Choice() session.Choice {
	return session.Choice{ID: s.ID, Alias: s.Alias, Name: s.Name, Icon: s.Icon}
}

// Detail is the by-id projection, including the blueprints of the type keyed
// by blueprint id.
type Detail struct {
	ID          uuid.UUID         `json:"id"`
	Key         uuid.UUID         `json:"key"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	Blueprints  map[string]string `json:"blueprints"`
}

// ScaffoldOptions narrows a scaffold.
type ScaffoldOptions struct {
	// Tabs keeps only fields in the named tabs. Empty keeps every field.
	Tabs []string
}

// ScaffoldProperty describes one field of an empty record.
type ScaffoldProperty struct {
	Alias         string         `json:"alias"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Editor        string         `json:"editor"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Mandatory     bool           `json:"mandatory"`
	Pattern       string         `json:"pattern,omitempty"`
	Value         content.Value  `json:"value"`
}

// ScaffoldTab groups scaffold properties.
type ScaffoldTab struct {
	Name       string             `json:"name"`
	Properties []ScaffoldProperty `json:"properties"`
}

// Scaffold is an empty record of an element type, optionally prefilled from a
// blueprint, plus the field layout the editor needs.
type Scaffold struct {
	ElementType Summary         `json:"element_type"`
	BlueprintID uuid.UUID       `json:"blueprint_id,omitempty"`
	Tabs        []ScaffoldTab   `json:"tabs"`
	Record      *content.Record `json:"record"`
}

// Dependencies wires the service collaborators. Blueprints and Converter are
// optional.
type Dependencies struct {
	ElementTypes store.ElementTypeRepository
	Blueprints   store.BlueprintRepository
	Resolver     *schema.Resolver
	Converter    *pipeline.Converter
	Logger       logger.Logger
}

// Service exposes element types to editors.
type Service struct {
	elementTypes store.ElementTypeRepository
	blueprints   store.BlueprintRepository
	resolver     *schema.Resolver
	converter    *pipeline.Converter
	logger       logger.Logger
}

// NewService constructs the element type service.
func NewService(deps Dependencies) (*Service, error) {
	if deps.ElementTypes == nil {
		return nil, errRepositoryRequired
	}
	if deps.Resolver == nil {
		return nil, errResolverRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Service{
		elementTypes: deps.ElementTypes,
		blueprints:   deps.Blueprints,
		resolver:     deps.Resolver,
		converter:    deps.Converter,
		logger:       deps.Logger,
	}, nil
}

// List returns every element type in repository order: sort order, then
// name.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(all))
	for i := range all {
		out = append(out, s.summary(ctx, &all[i]))
	}
	return out, nil
}

// ByAliases returns the element types with the given aliases in list order.
// No aliases returns every element type.
func (s *Service) ByAliases(ctx context.Context, aliases []string) ([]Summary, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(all))
	for i := range all {
		if len(aliases) > 0 && !containsFold(aliases, all[i].Alias) {
			continue
		}
		out = append(out, s.summary(ctx, &all[i]))
	}
	return out, nil
}

// ByIDs returns the element types with the given ids in request order.
// Unknown ids are skipped.
func (s *Service) ByIDs(ctx context.Context, ids []uuid.UUID) ([]Detail, error) {
	out := make([]Detail, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		et, err := s.elementTypes.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.logger.Debug("element type not found", logger.Field{Key: "id", Value: id.String()})
				continue
			}
			return nil, err
		}
		blueprints, err := s.blueprintNames(ctx, et.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Detail{
			ID:          et.ID,
			Key:         et.ID,
			Name:        et.Name,
			Description: et.Description,
			Icon:        SanitizeIcon(et.Icon),
			Blueprints:  blueprints,
		})
	}
	return out, nil
}

// Choices returns the element types with the given aliases as session
// choices. No aliases allows every element type.
func (s *Service) Choices(ctx context.Context, aliases []string) ([]session.Choice, error) {
	summaries, err := s.ByAliases(ctx, aliases)
	if err != nil {
		return nil, err
	}
	out := make([]session.Choice, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, sum.Choice())
	}
	return out, nil
}

// Icons maps element type ids to icons. Unknown ids are left out.
func (s *Service) Icons(ctx context.Context, ids []uuid.UUID) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		et, err := s.elementTypes.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[et.ID.String()] = SanitizeIcon(et.Icon)
	}
	return out, nil
}

// Scaffold builds an empty record for ref. It satisfies session.Scaffolder.
func (s *Service) Scaffold(ctx context.Context, ref content.Ref) (*content.Record, error) {
	sch, ok, err := s.resolver.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(ErrElementTypeNotFound, ref.String())
	}
	scaffold, err := s.scaffold(ctx, sch, nil, ScaffoldOptions{})
	if err != nil {
		return nil, err
	}
	return scaffold.Record, nil
}

// ScaffoldByID builds an empty record of the element type with id.
func (s *Service) ScaffoldByID(ctx context.Context, id uuid.UUID, opts ScaffoldOptions) (Scaffold, error) {
	sch, ok, err := s.resolver.ResolveRef(ctx, content.IDRef(id))
	if err != nil {
		return Scaffold{}, err
	}
	if !ok {
		return Scaffold{}, notFound(ErrElementTypeNotFound, id.String())
	}
	return s.scaffold(ctx, sch, nil, opts)
}

// ScaffoldFromBlueprint builds a record prefilled with the blueprint values.
func (s *Service) ScaffoldFromBlueprint(ctx context.Context, blueprintID uuid.UUID, opts ScaffoldOptions) (Scaffold, error) {
	if s.blueprints == nil {
		return Scaffold{}, notFound(ErrBlueprintNotFound, blueprintID.String())
	}
	bp, err := s.blueprints.GetByID(ctx, blueprintID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Scaffold{}, notFound(ErrBlueprintNotFound, blueprintID.String())
		}
		return Scaffold{}, err
	}
	sch, ok, err := s.resolver.ResolveRef(ctx, content.IDRef(bp.ElementTypeID))
	if err != nil {
		return Scaffold{}, err
	}
	if !ok {
		return Scaffold{}, notFound(ErrElementTypeNotFound, bp.ElementTypeID.String())
	}
	return s.scaffold(ctx, sch, bp, opts)
}

func (s *Service) scaffold(ctx context.Context, sch *schema.Schema, bp *domain.Blueprint, opts ScaffoldOptions) (Scaffold, error) {
	fields := sch.FieldsInTabs(opts.Tabs...)

	rec := content.NewRecord()
	rec.SetName("")
	rec.SetTypeID(sch.ID)
	for _, field := range fields {
		value := content.Null()
		if bp != nil {
			if v, ok := bp.Values.Get(field.Alias); ok {
				value = v.Clone()
			}
		}
		rec.Set(field.Alias, value)
	}
	if bp != nil {
		rec.SetName(bp.Name)
	}
	if s.converter != nil {
		converted, err := s.converter.ConvertRecord(ctx, pipeline.ToEditorModel, rec)
		if err != nil {
			return Scaffold{}, fmt.Errorf("elementtypes: scaffold %s: %w", sch.Alias, err)
		}
		rec = converted
	}

	out := Scaffold{
		ElementType: Summary{ID: sch.ID, Name: sch.Name, Alias: sch.Alias, Icon: SanitizeIcon(sch.Icon), Tabs: append([]string(nil), sch.Tabs...)},
		Tabs:        groupTabs(sch.Tabs, fields, rec),
		Record:      rec,
	}
	if bp != nil {
		out.BlueprintID = bp.ID
	}
	return out, nil
}

func groupTabs(order []string, fields []schema.Field, rec *content.Record) []ScaffoldTab {
	index := map[string]int{}
	var tabs []ScaffoldTab
	tab := func(name string) *ScaffoldTab {
		if strings.TrimSpace(name) == "" {
			name = GenericTab
		}
		key := strings.ToLower(name)
		if i, ok := index[key]; ok {
			return &tabs[i]
		}
		index[key] = len(tabs)
		tabs = append(tabs, ScaffoldTab{Name: name})
		return &tabs[len(tabs)-1]
	}

	used := map[string]bool{}
	for _, f := range fields {
		used[strings.ToLower(strings.TrimSpace(f.Group))] = true
	}
	for _, name := range order {
		if used[strings.ToLower(name)] {
			tab(name)
		}
	}
	for _, f := range fields {
		value, _ := rec.Get(f.Alias)
		t := tab(f.Group)
		t.Properties = append(t.Properties, ScaffoldProperty{
			Alias:         f.Alias,
			Name:          f.Name,
			Description:   f.Description,
			Editor:        f.Kind,
			Configuration: f.Configuration,
			Mandatory:     f.Mandatory,
			Pattern:       f.Pattern,
			Value:         value,
		})
	}
	return tabs
}

func (s *Service) all(ctx context.Context) ([]domain.ElementType, error) {
	res, err := s.elementTypes.List(ctx, store.ListOptions{})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (s *Service) summary(ctx context.Context, et *domain.ElementType) Summary {
	tabs := []string{}
	sch, err := s.resolver.Build(ctx, et)
	if err != nil {
		s.logger.Warn("element type tabs unavailable",
			logger.Field{Key: "alias", Value: et.Alias},
			logger.Field{Key: "error", Value: err},
		)
	} else {
		tabs = append(tabs, sch.Tabs...)
	}
	return Summary{
		ID:    et.ID,
		Name:  et.Name,
		Alias: et.Alias,
		Icon:  SanitizeIcon(et.Icon),
		Tabs:  tabs,
	}
}

func (s *Service) blueprintNames(ctx context.Context, elementTypeID uuid.UUID) (map[string]string, error) {
	out := map[string]string{}
	if s.blueprints == nil {
		return out, nil
	}
	items, err := s.blueprints.ListByElementType(ctx, elementTypeID)
	if err != nil {
		return nil, err
	}
	for _, bp := range items {
		out[bp.ID.String()] = bp.Name
	}
	return out, nil
}

func notFound(sentinel error, what string) error {
	code := "ELEMENT_TYPE_NOT_FOUND"
	if errors.Is(sentinel, ErrBlueprintNotFound) {
		code = "BLUEPRINT_NOT_FOUND"
	}
	return goerrors.Wrap(sentinel, goerrors.CategoryNotFound, what).WithTextCode(code)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
