package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("❌ Request failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
		)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: domain.Kind(err), Details: err.Error()})
}

// failBinding reports a malformed request body. A qty that is not an integer is an
// invalid quantity; validation failures list the offending fields with the rule they broke.
func (h *Handler) failBinding(c *gin.Context, err error) {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field == "qty" {
		h.fail(c, fmt.Errorf("%w: qty must be an integer, got %s", domain.ErrInvalidQuantity, te.Value))
		return
	}

	resp := errorResponse{Error: domain.Kind(domain.ErrInvalidArgument), Details: err.Error()}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		resp.Fields = make(map[string]string, len(ve))
		for _, fe := range ve {
			resp.Fields[fe.Field()] = fe.Tag()
		}
		resp.Details = "request validation failed"
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
