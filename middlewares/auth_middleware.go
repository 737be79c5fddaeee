package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const principalKey = "principal"

// UserLookup re-loads the account behind a token so deleted users and role
// changes take effect before the token expires.
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware requires a valid Bearer token.
func AuthMiddleware(signer *utils.TokenSigner, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			return
		}
		if !authenticate(c, signer, users, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the caller when a token is present and lets anonymous
// requests through. A present but invalid token is still rejected.
func OptionalAuth(signer *utils.TokenSigner, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && !authenticate(c, signer, users, authHeader) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, signer *utils.TokenSigner, users UserLookup, authHeader string) bool {
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		utils.AbortWithError(c, http.StatusUnauthorized, errors.New("invalid authorization format"))
		return false
	}

	claims, err := signer.ParseToken(strings.TrimSpace(tokenString))
	if err != nil {
		utils.AbortWithError(c, http.StatusUnauthorized, err)
		return false
	}

	user, err := users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.AbortWithError(c, http.StatusUnauthorized, utils.ErrInvalidToken)
			return false
		}
		utils.ErrLog().WithError(err).Error("auth: load user")
		utils.AbortWithError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return false
	}

	SetPrincipal(c, services.Principal{ID: user.ID, Role: user.Role})
	return true
}

// SetPrincipal stores the authenticated caller on the request context.
func SetPrincipal(c *gin.Context, p services.Principal) {
	c.Set(principalKey, p)
	c.Set("userID", p.ID)
	c.Set("role", string(p.Role))
}

// CurrentPrincipal returns the authenticated caller, if any.
func CurrentPrincipal(c *gin.Context) (services.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}
