package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/core/apperror"
	appctx "atelier/internal/core/context"
	"atelier/internal/infrastructure/http/v1/dto"
	"atelier/pkg/logger"
)

// ErrorHandler renders the last error a handler registered with c.Error.
// Application errors keep their status and details; anything else becomes
// a 500 whose cause only reaches the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ctx := c.Request.Context()
		err := c.Errors.Last().Err

		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code == apperror.CodeInternal {
			logger.Error(ctx, "unhandled error", "error", err)
			c.JSON(http.StatusInternalServerError, dto.InternalErrorResponse(appctx.GetRequestID(ctx)))
			return
		}

		if appErr.Err != nil {
			logger.Warn(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
		}
		c.JSON(appErr.HTTPStatus, dto.NewErrorResponse(appErr))
	}
}
