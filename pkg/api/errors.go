package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrorBody is the JSON error envelope returned by every endpoint.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Category   string                `json:"category"`
	Code       int                   `json:"code"`
	TextCode   string                `json:"text_code,omitempty"`
	Message    string                `json:"message"`
	Validation []goerrors.FieldError `json:"validation,omitempty"`
	RequestID  string                `json:"request_id,omitempty"`
}

// StatusFor maps an error category to an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch {
	case goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return fiber.StatusNotFound
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return fiber.StatusUnprocessableEntity
	case goerrors.IsCategory(err, goerrors.CategoryBadInput):
		return fiber.StatusBadRequest
	case goerrors.IsCategory(err, goerrors.CategoryConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func errorDetail(err error, status int, requestID string) ErrorDetail {
	detail := ErrorDetail{
		Category:  string(goerrors.CategoryInternal),
		Code:      status,
		Message:   err.Error(),
		RequestID: requestID,
	}
	var ge *goerrors.Error
	if errors.As(err, &ge) {
		detail.Category = string(ge.Category)
		detail.TextCode = ge.TextCode
		detail.Message = ge.Message
	}
	if fields, ok := goerrors.GetValidationErrors(err); ok {
		detail.Validation = fields
	}
	if status == fiber.StatusInternalServerError && ge == nil {
		detail.Message = "internal error"
	}
	return detail
}
