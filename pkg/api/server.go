package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/oklog/ulid/v2"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID assigns every request a ULID unless the caller supplied one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderRequestID))
		if id == "" {
			id = ulid.Make().String()
		}
		c.Locals(requestIDKey, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// RequestIDFrom returns the id assigned by RequestID.
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// ErrorHandler renders errors as ErrorBody with the status of their category.
func ErrorHandler(lgr logger.Logger) fiber.ErrorHandler {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		requestID := RequestIDFrom(c)
		if status >= fiber.StatusInternalServerError {
			lgr.Error("request failed",
				logger.Field{Key: "request_id", Value: requestID},
				logger.Field{Key: "path", Value: c.Path()},
				logger.Field{Key: "error", Value: err},
			)
		} else {
			lgr.Debug("request rejected",
				logger.Field{Key: "request_id", Value: requestID},
				logger.Field{Key: "path", Value: c.Path()},
				logger.Field{Key: "status", Value: status},
			)
		}
		return c.Status(status).JSON(ErrorBody{Error: errorDetail(err, status, requestID)})
	}
}

// NewApp builds a fiber app serving h under prefix.
func NewApp(h *Handler, prefix string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "stackedcontent",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(h.logger),
	})
	app.Use(RequestID())
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		h.Register(app)
		return app
	}
	h.Register(app.Group(prefix))
	return app
}
