package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

const CorrelationIdHeader = "x-correlation-id"

// RequestContextMiddleware puts the correlation id, client ip and route on
// the request context so model code can log them.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationIdHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		ctx = utils.SetClientIpInContext(ctx, c.ClientIP())
		ctx = utils.SetRequestPathInContext(ctx, path)
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationIdHeader, cid)
		c.Next()
	}
}
