// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"atelier/internal/core/apperror"
	appctx "atelier/internal/core/context"
	"atelier/internal/infrastructure/http/v1/dto"
	"atelier/pkg/logger"
)

// Recovery turns a handler panic into a 500. The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			// The panic unwound ErrorHandler, so the response is written here.
			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.InternalErrorResponse(appctx.GetRequestID(ctx)))
		}()
		c.Next()
	}
}
