package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-opsboard/actions"
	"github.com/goliatone/go-opsboard/gateway"
)

type errorResponse struct {
	Success  bool                     `json:"success"`
	Error    string                   `json:"error"`
	Code     string                   `json:"code,omitempty"`
	Category string                   `json:"category,omitempty"`
	Fields   goerrors.ValidationErrors `json:"fields,omitempty"`
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	var actionErr *actions.ActionError
	if goerrors.As(err, &actionErr) {
		body.Error = actionErr.Message
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		body.Code = rich.TextCode
		body.Category = rich.Category.String()
		body.Fields = rich.AllValidationErrors()
	}

	c.AbortWithStatusJSON(status, body)
}

// statusFor maps err onto a response status. Backend client errors pass
// through, backend server errors become 502.
func statusFor(err error) int {
	if code := gateway.StatusCode(err); code > 0 {
		if code >= http.StatusInternalServerError {
			return http.StatusBadGateway
		}
		return code
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return http.StatusInternalServerError
	}
	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
