package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/blueprints"
	"github.com/goliatone/go-stacked-content/pkg/commands"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/elementtypes"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/goliatone/go-stacked-content/pkg/pipeline"
	"github.com/goliatone/go-stacked-content/pkg/validation"
	"github.com/google/uuid"
)

var (
	errElementTypesRequired = errors.New("api: element type service is required")
	errCommandsRequired     = errors.New("api: command registry is required")
)

// ElementTypeService is the read side the API exposes.
type ElementTypeService interface {
	List(ctx context.Context) ([]elementtypes.Summary, error)
	ByAliases(ctx context.Context, aliases []string) ([]elementtypes.Summary, error)
	ByIDs(ctx context.Context, ids []uuid.UUID) ([]elementtypes.Detail, error)
	Icons(ctx context.Context, ids []uuid.UUID) (map[string]string, error)
	ScaffoldByID(ctx context.Context, id uuid.UUID, opts elementtypes.ScaffoldOptions) (elementtypes.Scaffold, error)
	ScaffoldFromBlueprint(ctx context.Context, id uuid.UUID, opts elementtypes.ScaffoldOptions) (elementtypes.Scaffold, error)
}

// Dependencies wires the handler collaborators. Converter and Validator are
// optional; their routes are not registered without them.
type Dependencies struct {
	ElementTypes ElementTypeService
	Commands     *commands.Registry
	Converter    *pipeline.Converter
	Validator    *validation.Validator
	Logger       logger.Logger
	// DefaultLocale is used when a request names no locale.
	DefaultLocale string
}

// Handler serves the editor backoffice endpoints.
type Handler struct {
	elementTypes  ElementTypeService
	commands      *commands.Registry
	converter     *pipeline.Converter
	validator     *validation.Validator
	logger        logger.Logger
	defaultLocale string
}

// New builds the handler.
func New(deps Dependencies) (*Handler, error) {
	if deps.ElementTypes == nil {
		return nil, errElementTypesRequired
	}
	if deps.Commands == nil {
		return nil, errCommandsRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Handler{
		elementTypes:  deps.ElementTypes,
		commands:      deps.Commands,
		converter:     deps.Converter,
		validator:     deps.Validator,
		logger:        deps.Logger,
		defaultLocale: deps.DefaultLocale,
	}, nil
}

// Register mounts the routes on r.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/element-types", h.ListElementTypes)
	r.Get("/element-types/by-ids", h.ElementTypesByIDs)
	r.Get("/element-types/by-aliases", h.ElementTypesByAliases)
	r.Get("/element-types/icons", h.ElementTypeIcons)
	r.Get("/element-types/:id/scaffold", h.ScaffoldByID)
	r.Get("/blueprints/:id/scaffold", h.ScaffoldByBlueprint)
	r.Post("/blueprints", h.CreateBlueprint)
	if h.converter != nil {
		r.Post("/convert", h.Convert)
	}
	if h.validator != nil {
		r.Post("/validate", h.Validate)
	}
}

// ListElementTypes returns every element type.
func (h *Handler) ListElementTypes(c *fiber.Ctx) error {
	out, err := h.elementTypes.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ElementTypesByIDs returns the requested element types in request order.
func (h *Handler) ElementTypesByIDs(c *fiber.Ctx) error {
	ids, err := queryIDs(c, "ids")
	if err != nil {
		return err
	}
	out, err := h.elementTypes.ByIDs(c.UserContext(), ids)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ElementTypesByAliases returns the element types with the requested aliases.
func (h *Handler) ElementTypesByAliases(c *fiber.Ctx) error {
	out, err := h.elementTypes.ByAliases(c.UserContext(), queryList(c, "aliases"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ElementTypeIcons returns the icons of the requested element types keyed by id.
func (h *Handler) ElementTypeIcons(c *fiber.Ctx) error {
	ids, err := queryIDs(c, "ids")
	if err != nil {
		return err
	}
	out, err := h.elementTypes.Icons(c.UserContext(), ids)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ScaffoldByID returns an empty record of the element type.
func (h *Handler) ScaffoldByID(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	out, err := h.elementTypes.ScaffoldByID(c.UserContext(), id, elementtypes.ScaffoldOptions{Tabs: queryList(c, "tabs")})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ScaffoldByBlueprint returns a record prefilled from the blueprint.
func (h *Handler) ScaffoldByBlueprint(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	out, err := h.elementTypes.ScaffoldFromBlueprint(c.UserContext(), id, elementtypes.ScaffoldOptions{Tabs: queryList(c, "tabs")})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

type createBlueprintRequest struct {
	Item   *content.Record `json:"item"`
	UserID int             `json:"userId"`
}

// CreateBlueprint saves the posted record as a blueprint and returns the
// editor notification.
func (h *Handler) CreateBlueprint(c *fiber.Ctx) error {
	var req createBlueprintRequest
	if err := c.BodyParser(&req); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid blueprint request").
			WithTextCode("INVALID_REQUEST")
	}
	if req.UserID == 0 {
		req.UserID = c.QueryInt("userId")
	}
	var result blueprints.CreateResult
	err := h.commands.CreateBlueprint.Execute(c.UserContext(), commands.CreateBlueprint{
		Item:   req.Item,
		UserID: req.UserID,
		Locale: h.locale(c),
		Result: &result,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result.Notification)
}

type valueResponse struct {
	Value any  `json:"value"`
	Empty bool `json:"empty,omitempty"`
}

// Convert runs the posted value through the direction named by the
// direction query parameter.
func (h *Handler) Convert(c *fiber.Ctx) error {
	dir, err := pipeline.ParseDirection(c.Query("direction", "display"))
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	raw := string(c.Body())
	switch dir {
	case pipeline.ToDisplayString:
		out, err := h.converter.ToDisplayString(ctx, raw)
		if err != nil {
			return err
		}
		return c.JSON(valueResponse{Value: out})
	case pipeline.ToEditorModel:
		out, err := h.converter.ToEditorModel(ctx, raw)
		if err != nil {
			return err
		}
		return c.JSON(valueResponse{Value: out})
	default:
		out, ok, err := h.converter.FromEditorModel(ctx, raw)
		if err != nil {
			return err
		}
		return c.JSON(valueResponse{Value: out, Empty: !ok})
	}
}

// Validate returns the validation messages of the posted value.
func (h *Handler) Validate(c *fiber.Ctx) error {
	seq, err := h.validator.Validate(c.UserContext(), string(c.Body()))
	if err != nil {
		return err
	}
	results := validation.Collect(seq)
	if results == nil {
		results = []validation.Result{}
	}
	return c.JSON(fiber.Map{"valid": len(results) == 0, "results": results})
}

func (h *Handler) locale(c *fiber.Ctx) string {
	if loc := strings.TrimSpace(c.Query("locale")); loc != "" {
		return loc
	}
	header := c.Get(fiber.HeaderAcceptLanguage)
	if header != "" {
		tag, _, _ := strings.Cut(header, ",")
		tag, _, _ = strings.Cut(tag, ";")
		tag, _, _ = strings.Cut(strings.TrimSpace(tag), "-")
		if tag != "" && tag != "*" {
			return strings.ToLower(tag)
		}
	}
	return h.defaultLocale
}

// queryList collects a repeated or comma separated query parameter.
func queryList(c *fiber.Ctx, name string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(name) {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryIDs(c *fiber.Ctx, name string) ([]uuid.UUID, error) {
	raw := queryList(c, name)
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := parseID(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid id "+raw).
			WithTextCode("INVALID_ID")
	}
	return id, nil
}
