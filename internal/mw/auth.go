package mw

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
)

const principalKey = "principal"

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// PrincipalResolver loads the current role of an account.
type PrincipalResolver interface {
	Principal(ctx context.Context, profileID string) (auth.Principal, error)
}

// Authenticate requires a valid bearer token and stores the caller's
// Principal in the context. The role is taken from the stored profile, not
// from the token. EventSource clients cannot set headers, so GET requests
// may pass the token as the access_token query parameter.
func Authenticate(tokens TokenVerifier, resolver PrincipalResolver, principals *PrincipalCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			Abort(c, apperr.Unauthorized("missing bearer token"))
			return
		}
		claimed, err := tokens.Verify(raw)
		if err != nil {
			Abort(c, err)
			return
		}

		p, ok := principals.Get(claimed.ProfileID)
		if !ok {
			p, err = resolver.Principal(c.Request.Context(), claimed.ProfileID)
			if err != nil {
				Abort(c, err)
				return
			}
			principals.Set(p)
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if c.Request.Method == "GET" {
		return c.Query("access_token")
	}
	return ""
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// OptionalPrincipal returns the caller when a valid token is presented and
// nil otherwise. It never aborts.
func OptionalPrincipal(c *gin.Context, tokens TokenVerifier, resolver PrincipalResolver) *auth.Principal {
	raw := bearerToken(c)
	if raw == "" {
		return nil
	}
	claimed, err := tokens.Verify(raw)
	if err != nil {
		return nil
	}
	p, err := resolver.Principal(c.Request.Context(), claimed.ProfileID)
	if err != nil {
		return nil
	}
	return &p
}
