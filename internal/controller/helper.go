package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/partyjukebox/server/internal/service/room"
	"github.com/partyjukebox/server/pkg/rest"
)

const hostSecretHeader = "X-Host-Secret"

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// requestUserID identifies the caller of a participant endpoint. A bearer
// session token wins over the user id in the body.
func (c controller) requestUserID(w http.ResponseWriter, r *http.Request, bodyUserID string) (string, bool) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		user, err := c.roomService.SessionUser(r.Context(), c.getCode(r), strings.TrimSpace(token))
		if err != nil {
			c.writeError(w, r, err)
			return "", false
		}

		return user.ID, true
	}

	if bodyUserID == "" {
		c.writeBadRequest(w, r, "session token or user id is required", nil)
		return "", false
	}

	return bodyUserID, true
}

func (c controller) getCode(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
}

type errorInfo struct {
	status  int
	code    string
	message string
}

// describeError maps a service error to its API representation. Internal
// causes of 5xx errors are not exposed.
func describeError(err error) errorInfo {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return errorInfo{http.StatusNotFound, "not_found", err.Error()}
	case errors.Is(err, room.ErrForbidden):
		return errorInfo{http.StatusForbidden, "forbidden", err.Error()}
	case errors.Is(err, room.ErrInvalidInput):
		return errorInfo{http.StatusBadRequest, "invalid_input", err.Error()}
	case errors.Is(err, room.ErrConflict):
		return errorInfo{http.StatusBadRequest, "conflict", err.Error()}
	case errors.Is(err, room.ErrRateLimited):
		return errorInfo{http.StatusBadRequest, "rate_limited", err.Error()}
	case errors.Is(err, room.ErrUpstreamUnavailable):
		return errorInfo{http.StatusBadGateway, "upstream_unavailable", "metadata service unavailable"}
	default:
		return errorInfo{http.StatusInternalServerError, "internal", "internal server error"}
	}
}

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	info := describeError(err)
	if info.status >= http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		c.logger.InfoContext(r.Context(), "request rejected", "error", err)
	}

	if err := rest.WriteJSON(w, info.status, rest.Envelope{
		"code":    info.code,
		"message": info.message,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

func (c controller) writeBadRequest(w http.ResponseWriter, r *http.Request, message string, details any) {
	c.logger.DebugContext(r.Context(), "bad request", "message", message)

	env := rest.Envelope{
		"code":    "invalid_input",
		"message": message,
	}
	if details != nil {
		env["errors"] = details
	}

	if err := rest.WriteJSON(w, http.StatusBadRequest, env); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := rest.WriteJSON(w, status, data); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

// readInput decodes and validates a request body. It writes the error
// response itself and reports whether the handler may continue.
func (c controller) readInput(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := rest.ReadJSON(r, dst); err != nil {
		c.writeBadRequest(w, r, err.Error(), nil)
		return false
	}

	if errs, ok := c.validate.Validate(dst); !ok {
		c.writeBadRequest(w, r, "validation failed", errs)
		return false
	}

	return true
}
