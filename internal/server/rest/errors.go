package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(c *gin.Context, status int, detail, code string, fields map[string]string) {
	c.JSON(status, errorResponse{Detail: detail, Code: code, Fields: fields})
}

// statusFor maps a flow error to an HTTP status and a human-readable detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusUnprocessableEntity, "Validation failed."
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusBadRequest, "This username already exists."
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusBadRequest, "This email already exists."
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials."
	case errors.Is(err, common.ErrUnknownRefreshToken):
		return http.StatusUnauthorized, "Invalid token."
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired."
	case errors.Is(err, common.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid token."
	case errors.Is(err, common.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Storage unavailable, try again later."
	default:
		return http.StatusInternalServerError, "Internal error."
	}
}

// respondError writes the envelope for err and logs server-side failures.
func (s *Server) respondError(c *gin.Context, flow string, err error) {
	status, detail := statusFor(err)

	var fields map[string]string
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		fields = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "flow failed", "flow", flow, "error", err.Error())
	} else {
		s.logger.Info(c.Request.Context(), "flow rejected", "flow", flow, "code", common.Code(err))
	}

	writeError(c, status, detail, common.Code(err), fields)
}
