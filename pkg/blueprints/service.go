package blueprints

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	i18n "github.com/goliatone/go-i18n"
	masker "github.com/goliatone/go-masker"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/google/uuid"
)

// NotificationSuccess is the only notification type emitted today.
const NotificationSuccess = "success"

var (
	ErrItemRequired       = errors.New("blueprints: item is required")
	ErrUnknownElementType = errors.New("blueprints: element type could not be resolved")
	ErrInvalidKey         = errors.New("blueprints: key is not a valid UUID")

	errRepositoryRequired = errors.New("blueprints: repository is required")
	errResolverRequired   = errors.New("blueprints: schema resolver is required")
)

// Notification is the message shown to the editor after an action.
type Notification struct {
	Header  string `json:"header"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// CreateInput carries an editor record to turn into a blueprint.
type CreateInput struct {
	Item   *content.Record
	UserID int
	Locale string
}

// CreateResult is the stored blueprint plus the notification for the editor.
type CreateResult struct {
	Blueprint    *domain.Blueprint `json:"blueprint"`
	Notification Notification      `json:"notification"`
}

// SchemaResolver resolves the element type of a record.
type SchemaResolver interface {
	Resolve(ctx context.Context, rec *content.Record) (schema.Resolution, bool, error)
}

// Dependencies wires the service collaborators. Translator defaults to the
// bundled catalog.
type Dependencies struct {
	Repository    store.BlueprintRepository
	Resolver      SchemaResolver
	Translator    i18n.Translator
	DefaultLocale string
	Logger        logger.Logger
}

// Service saves editor records as reusable blueprints.
type Service struct {
	repo          store.BlueprintRepository
	resolver      SchemaResolver
	translator    i18n.Translator
	defaultLocale string
	logger        logger.Logger
}

// NewService constructs the blueprint service.
func NewService(deps Dependencies) (*Service, error) {
	if deps.Repository == nil {
		return nil, errRepositoryRequired
	}
	if deps.Resolver == nil {
		return nil, errResolverRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if strings.TrimSpace(deps.DefaultLocale) == "" {
		deps.DefaultLocale = "en"
	}
	if deps.Translator == nil {
		translator, err := i18n.NewSimpleTranslator(
			i18n.NewStaticStore(Translations()),
			i18n.WithTranslatorDefaultLocale(deps.DefaultLocale),
		)
		if err != nil {
			return nil, fmt.Errorf("blueprints: translator: %w", err)
		}
		deps.Translator = translator
	}
	return &Service{
		repo:          deps.Repository,
		resolver:      deps.Resolver,
		translator:    deps.Translator,
		defaultLocale: deps.DefaultLocale,
		logger:        deps.Logger,
	}, nil
}

// Create stores the item as a blueprint. Only fields the element type
// defines are kept; name and key are read from the reserved keys. A present
// key becomes the blueprint id and an existing blueprint with that id is
// replaced.
func (s *Service) Create(ctx context.Context, input CreateInput) (CreateResult, error) {
	if input.Item == nil {
		return CreateResult{}, goerrors.Wrap(ErrItemRequired, goerrors.CategoryBadInput, "item is required").WithTextCode("ITEM_REQUIRED")
	}
	res, ok, err := s.resolver.Resolve(ctx, input.Item)
	if err != nil {
		return CreateResult{}, err
	}
	if !ok {
		return CreateResult{}, goerrors.Wrap(ErrUnknownElementType, goerrors.CategoryBadInput, input.Item.TypeRef().String()).
			WithTextCode("UNKNOWN_ELEMENT_TYPE")
	}

	id, err := blueprintKey(input.Item)
	if err != nil {
		return CreateResult{}, err
	}

	values := content.NewRecord()
	for alias, value := range input.Item.All() {
		field, ok := res.Schema.Field(alias)
		if !ok {
			continue
		}
		values.Set(field.Alias, value.Clone())
	}

	name := strings.TrimSpace(input.Item.Name())
	if name == "" {
		name = res.Schema.Name
	}
	bp := &domain.Blueprint{
		RecordMeta:    domain.RecordMeta{ID: id},
		Name:          name,
		ElementTypeID: res.Schema.ID,
		CreatorID:     input.UserID,
		Values:        values,
	}
	if err := s.save(ctx, bp); err != nil {
		return CreateResult{}, err
	}

	s.logger.Info("blueprint created",
		logger.Field{Key: "blueprint_id", Value: bp.ID.String()},
		logger.Field{Key: "element_type", Value: res.Schema.Alias},
		logger.Field{Key: "user", Value: maskActor(input.UserID)},
	)

	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = s.defaultLocale
	}
	return CreateResult{
		Blueprint: bp,
		Notification: Notification{
			Header:  s.translate(locale, KeyCreatedHeading),
			Message: s.translate(locale, KeyCreatedMessage, bp.Name),
			Type:    NotificationSuccess,
		},
	}, nil
}

func (s *Service) save(ctx context.Context, bp *domain.Blueprint) error {
	if bp.ID == uuid.Nil {
		return s.repo.Create(ctx, bp)
	}
	if _, err := s.repo.GetByID(ctx, bp.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.repo.Create(ctx, bp)
		}
		return err
	}
	return s.repo.Update(ctx, bp)
}

func (s *Service) translate(locale, key string, args ...any) string {
	out, err := s.translator.Translate(locale, key, args...)
	if err != nil {
		s.logger.Warn("missing translation",
			logger.Field{Key: "locale", Value: locale},
			logger.Field{Key: "key", Value: key},
			logger.Field{Key: "error", Value: err},
		)
		return key
	}
	return out
}

func blueprintKey(item *content.Record) (uuid.UUID, error) {
	v, ok := item.Get(content.KeyKey)
	if !ok || v.IsBlank() {
		return uuid.Nil, nil
	}
	raw := strings.TrimSpace(v.Text())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.NewValidation("blueprint key is invalid", goerrors.FieldError{
			Field:   content.KeyKey,
			Message: ErrInvalidKey.Error(),
			Value:   raw,
		})
	}
	return id, nil
}

func maskActor(userID int) string {
	value := strconv.Itoa(userID)
	if masked, err := masker.Default.String("preserveEnds(1,1)", value); err == nil {
		return masked
	}
	return strings.Repeat("*", len(value))
}
