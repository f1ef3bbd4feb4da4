package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/infrastructure/auth"
	"github.com/tropa/backend/internal/interfaces/http/dto"
)

// Context keys populated by the auth middleware.
const (
	UserIDKey   = "auth_user_id"
	UsernameKey = "auth_username"
	RoleKey     = "auth_role"

	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// RequireAuth validates the bearer token and stores the caller's identity in
// the gin context. Requests without a valid token are rejected with 401.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeader)
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := jwtService.Validate(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			code := "INVALID_TOKEN"
			message := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = "TOKEN_EXPIRED"
				message = "Token has expired"
			}
			abortUnauthorized(c, code, message)
			return
		}

		userID, err := claims.GetUserUUID()
		if err != nil {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid token subject")
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UsernameKey, claims.Username)
		c.Set(RoleKey, claims.GetRole())
		c.Next()
	}
}

// RequireTroopManager rejects callers whose role may not operate the troop
// store. Must run after RequireAuth.
func RequireTroopManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentRole(c).CanManageTroopStore() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Insufficient role for this operation"))
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated caller's ID, or uuid.Nil when the
// request is unauthenticated.
func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(UserIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// CurrentRole returns the authenticated caller's role, or the empty role.
func CurrentRole(c *gin.Context) identity.Role {
	if v, exists := c.Get(RoleKey); exists {
		if role, ok := v.(identity.Role); ok {
			return role
		}
	}
	return identity.Role("")
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message))
}
