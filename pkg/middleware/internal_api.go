package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const internalAPIKeyHeader = "X-Internal-API-Key"

// InternalAPIMiddleware защищает служебные эндпоинты, доступные только
// другим сервисам по общему ключу
type InternalAPIMiddleware struct {
	apiKey string
}

func NewInternalAPIMiddleware(apiKey string) *InternalAPIMiddleware {
	return &InternalAPIMiddleware{apiKey: apiKey}
}

// Required проверяет ключ внутреннего API в заголовке запроса
func (m *InternalAPIMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(internalAPIKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "доступ запрещен"})
			return
		}
		c.Next()
	}
}
