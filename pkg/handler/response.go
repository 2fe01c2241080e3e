package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wallet_core/models"
)

type Error struct {
	Message string           `json:"message"`
	Kind    models.ErrorKind `json:"kind,omitempty"`
	Code    string           `json:"code,omitempty"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	logrus.Error(message)
	c.AbortWithStatusJSON(statusCode, Error{Message: message})
}

// newServiceErrorResponse maps the wallet error taxonomy onto HTTP statuses.
func newServiceErrorResponse(c *gin.Context, err error) {
	e, ok := models.AsError(err)
	if !ok {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	status := statusFor(e)
	entry := logrus.WithFields(logrus.Fields{"kind": e.Kind, "code": e.Code, "path": c.FullPath()})
	if status >= http.StatusInternalServerError {
		entry.Error(err.Error())
	} else {
		entry.Info(err.Error())
	}
	c.AbortWithStatusJSON(status, Error{Message: err.Error(), Kind: e.Kind, Code: e.Code})
}

func statusFor(e *models.Error) int {
	switch e {
	case models.ErrDuplicateIntent, models.ErrInvalidTransition, models.ErrNotConfirmed:
		return http.StatusConflict
	case models.ErrTransactionNotFound:
		return http.StatusNotFound
	case models.ErrConfirmationCancelled:
		return http.StatusBadRequest
	}

	switch e.Kind {
	case models.KindValidation:
		return http.StatusUnprocessableEntity
	case models.KindCapture:
		return http.StatusBadRequest
	case models.KindConfirmation:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func wrapOkJSON(c *gin.Context, response map[string]interface{}) {
	c.JSON(http.StatusOK, response)
}
