package api

import (
	"errors"
	"net/http"

	"perfume-admin/internal/models"
	"perfume-admin/internal/service"
	"perfume-admin/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope of every /api/v1 response
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Notice  string            `json:"notice,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func ok(c *gin.Context, status int, data any, notice string) {
	c.JSON(status, Response{Success: true, Data: data, Notice: notice})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// failErr maps service errors onto HTTP statuses
func failErr(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{Success: false, Message: err.Error(), Errors: verr.Fields})
	case errors.Is(err, models.ErrInvalidStatus), errors.Is(err, models.ErrInvalidLogin):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrOrderNotFound), errors.Is(err, models.ErrUserNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, service.NoticeReauth)
	case errors.Is(err, models.ErrNotLoggedIn):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrRemoteRejected):
		fail(c, http.StatusBadGateway, err.Error())
	default:
		util.GetLogger().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
	}
}
