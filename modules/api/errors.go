package api

import (
	"errors"
	"log"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

var (
	errAuthRequired = apperror.Unauthorized("authentication required")
	errAdminOnly    = apperror.Forbidden("admin access required")
	errRateLimited  = apperror.New(apperror.KindRateLimited, "too many requests")
)

func invalidBody() error {
	return apperror.Validation("invalid request body", nil)
}

// writeError maps err to its status code and writes the error body.
// Unclassified failures are logged and reported without their cause.
func writeError(c *fiber.Ctx, err error) error {
	appErr := apperror.As(err)
	if appErr.Kind == apperror.KindInternal {
		log.Printf("[api] %s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(apperror.HTTPStatus(appErr.Kind)).JSON(ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
	})
}

// errorHandler renders routing errors and recovered panics with the same body.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
	}
	return writeError(c, err)
}
