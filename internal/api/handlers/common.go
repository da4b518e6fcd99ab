package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/resumerank/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// requireJobID reads ?jobId=, accepting ?job_id= as an alias.
func requireJobID(c *gin.Context, op string) (string, bool) {
	id := strings.TrimSpace(c.Query("jobId"))
	if id == "" {
		id = strings.TrimSpace(c.Query("job_id"))
	}
	if id == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing jobId", nil))
		return "", false
	}
	return id, true
}
