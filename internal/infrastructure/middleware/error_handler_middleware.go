package middleware

import (
	"net/http"

	apperrors "mosaic/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware recovers panics and maps AppErrors attached to the
// gin context into JSON responses. Playback and persistence errors are
// converted to state long before this point; anything arriving here is a
// handler-level failure.
func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if appErr := apperrors.GetAppError(err); appErr != nil {
			c.JSON(appErr.HTTPStatus, gin.H{
				"error": appErr.Message,
				"code":  string(appErr.Code),
			})
			return
		}

		logger.Error("unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
