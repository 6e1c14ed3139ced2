// Package problem renders errors as RFC 7807 problem documents.
package problem

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
)

type Problem struct {
	Type          string                 `json:"type"`
	Title         string                 `json:"title"`
	Status        int                    `json:"status"`
	Detail        string                 `json:"detail,omitempty"`
	Instance      string                 `json:"instance,omitempty"`
	CorrelationID string                 `json:"correlationId"`
	Errors        []apperrors.FieldError `json:"errors,omitempty"`
}

const typeBase = "https://taskdeck.dev/problems/"

func slugFor(status int) (string, string) {
	switch status {
	case http.StatusBadRequest:
		return "validation", "Bad Request"
	case http.StatusUnauthorized:
		return "unauthorized", "Unauthorized"
	case http.StatusForbidden:
		return "forbidden", "Forbidden"
	case http.StatusNotFound:
		return "not-found", "Not Found"
	case http.StatusConflict:
		return "conflict", "Conflict"
	case http.StatusTooManyRequests:
		return "rate-limited", "Too Many Requests"
	default:
		return "internal", "Internal Server Error"
	}
}

// New builds a problem document for the request. Server error detail is
// redacted outside debug mode.
func New(c *gin.Context, status int, detail string) Problem {
	slug, title := slugFor(status)

	if status >= http.StatusInternalServerError && gin.Mode() != gin.DebugMode {
		detail = "An unexpected error occurred"
	}

	return Problem{
		Type:          typeBase + slug,
		Title:         title,
		Status:        status,
		Detail:        detail,
		Instance:      c.Request.URL.Path,
		CorrelationID: uuid.NewString(),
	}
}

func build(c *gin.Context, err error) (int, Problem) {
	status := apperrors.StatusCode(err)
	p := New(c, status, err.Error())

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		p.Errors = appErr.Fields
	}

	return status, p
}

// Render writes the error as a problem document with the status from its
// kind.
func Render(c *gin.Context, err error) {
	status, p := build(c, err)
	c.JSON(status, p)
}

// Abort renders the problem and stops the handler chain.
func Abort(c *gin.Context, err error) {
	status, p := build(c, err)
	c.AbortWithStatusJSON(status, p)
}
