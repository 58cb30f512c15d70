package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/tracker-service/internal/errs"
)

// respondError маппит ошибку сервиса в JSON-ответ: машинный код плюс
// человекочитаемое сообщение. Нетипизированные ошибки уходят наружу как
// непрозрачный INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error":   string(appErr.Kind),
			"message": appErr.Message,
		})
		return
	}
	log.Printf("handler: unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   string(errs.KindInternal),
		"message": "internal error",
	})
}

// callerID извлекает идентификатор вызывающего, проставленный внешним
// auth-слоем.
func callerID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}
