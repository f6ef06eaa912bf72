package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/internal/principal"
)

const (
	headerAuthorization = "Authorization"
	bearerScheme        = "bearer"
	contextUserIDKey    = "user_id"
	actorTypeUser       = "user"
)

// AuthRequired resolves the bearer token into a principal or aborts with 401.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader(headerAuthorization))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := principal.WithPrincipal(c.Request.Context(), principal.Principal{
			UserID: user.ID,
			Role:   user.Role,
		})
		ctx = obscontext.WithActor(ctx, actorTypeUser, user.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, user.ID.String())
		c.Next()
	}
}

// authorize checks the caller's role against the RBAC policy for object and action.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := principal.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), caller.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RateLimit throttles the route per client IP. A nil limiter lets everything through.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		res, err := s.limiter.Allow(c.Request.Context(), endpoint, c.ClientIP())
		if err != nil || res == nil || res.Allowed {
			c.Next()
			return
		}

		retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		AbortWithError(c, ErrRateLimited)
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return strings.TrimPrefix(endpoint, "/v1")
}
