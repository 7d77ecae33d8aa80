package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

const (
	principalKey = "principal"
	profileKey   = "principal_profile"
)

// AuthMiddleware verifies access tokens and attaches the caller's principal
type AuthMiddleware struct {
	tokens *utils.TokenService
	store  *store.Store
	cache  *utils.PrincipalCache
}

// NewAuthMiddleware creates the middleware; cache may be nil
func NewAuthMiddleware(tokens *utils.TokenService, s *store.Store, cache *utils.PrincipalCache) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, store: s, cache: cache}
}

// RequireAuth rejects requests without a valid bearer token whose user still
// exists in the organisation named by the token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "No token provided")
			return
		}

		claims, err := am.tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.UnauthorizedResponse(c, "Token expired")
				return
			}
			utils.UnauthorizedResponse(c, "Invalid token")
			return
		}

		// Verify guarantees both ids parse
		userID, _ := claims.UserID()
		orgID, _ := claims.OrgID()

		profile, err := am.resolve(c, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.UnauthorizedResponse(c, "User not found")
				return
			}
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to load principal")
			utils.InternalServerErrorResponse(c, "Authentication error")
			return
		}
		if profile.OrganisationID != orgID {
			utils.UnauthorizedResponse(c, "Invalid token")
			return
		}

		c.Set(principalKey, store.Principal{UserID: profile.UserID, OrganisationID: profile.OrganisationID})
		c.Set(profileKey, *profile)
		c.Next()
	}
}

// resolve returns the user's principal from the cache, falling back to the
// database and refilling the cache.
func (am *AuthMiddleware) resolve(c *gin.Context, userID uuid.UUID) (*utils.CachedPrincipal, error) {
	ctx := c.Request.Context()

	cached, err := am.cache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, utils.ErrCacheMiss) {
		logrus.WithError(err).Warn("Principal cache unavailable, using database")
	}

	user, err := am.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &utils.CachedPrincipal{
		UserID:         user.ID,
		OrganisationID: user.OrganisationID,
		Name:           user.Name,
		Email:          user.Email,
	}
	if err := am.cache.Set(ctx, *profile); err != nil {
		logrus.WithError(err).Warn("Failed to cache principal")
	}
	return profile, nil
}

// extractToken returns the bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// GetPrincipal returns the principal attached by RequireAuth
func GetPrincipal(c *gin.Context) (store.Principal, error) {
	v, exists := c.Get(principalKey)
	if !exists {
		return store.Principal{}, fmt.Errorf("principal not found in context")
	}
	p, ok := v.(store.Principal)
	if !ok {
		return store.Principal{}, fmt.Errorf("unexpected principal type %T", v)
	}
	return p, nil
}

// GetProfile returns the cached user details attached by RequireAuth
func GetProfile(c *gin.Context) (utils.CachedPrincipal, bool) {
	v, exists := c.Get(profileKey)
	if !exists {
		return utils.CachedPrincipal{}, false
	}
	p, ok := v.(utils.CachedPrincipal)
	return p, ok
}
