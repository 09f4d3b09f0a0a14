package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "

	// ContextUserIDKey ключ, под которым идентификатор пользователя кладётся в контекст gin
	ContextUserIDKey = "userID"
	// ContextClaimsKey ключ, под которым клеймы токена кладутся в контекст gin
	ContextClaimsKey = "tokenClaims"
)

// AuthMiddleware предоставляет middleware для проверки JWT токенов
type AuthMiddleware struct {
	jwtManager *JWTManager
}

func NewAuthMiddleware(jwtManager *JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// AuthRequired проверяет наличие и валидность JWT токена в заголовке запроса
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "отсутствует заголовок авторизации"})
			return
		}

		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "неверный формат заголовка авторизации"})
			return
		}

		claims, err := m.jwtManager.ParseToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "недействительный токен"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// GetUserID извлекает идентификатор пользователя из контекста запроса
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
