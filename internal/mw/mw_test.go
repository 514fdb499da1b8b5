package mw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2, time.Minute)
	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	w := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperr.TypeRateLimited, body.Type)

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code, "limits are per client")
	assert.Equal(t, 2, limiter.Len())
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, time.Minute)
	assert.Same(t, limiter.GetLimiter("a"), limiter.GetLimiter("a"))
	assert.NotSame(t, limiter.GetLimiter("a"), limiter.GetLimiter("b"))
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (auth.Principal, error) {
	if token != "good" {
		return auth.Principal{}, apperr.Unauthorized("invalid token")
	}
	return auth.Principal{ProfileID: "p1", Role: model.RoleAdmin}, nil
}

type countingResolver struct {
	calls int
	role  model.Role
	err   error
}

func (r *countingResolver) Principal(_ context.Context, profileID string) (auth.Principal, error) {
	r.calls++
	if r.err != nil {
		return auth.Principal{}, r.err
	}
	return auth.Principal{ProfileID: profileID, Role: r.role}, nil
}

func newAuthRouter(resolver PrincipalResolver) *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(fakeVerifier{}, resolver, NewPrincipalCache(time.Minute)))
	r.GET("/me", func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, p)
	})
	r.POST("/me", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthenticate(t *testing.T) {
	resolver := &countingResolver{role: model.RoleStudent}
	r := newAuthRouter(resolver)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"unauthorized"`)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer forged")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("role comes from the stored profile and is cached", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer good")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)

			var p auth.Principal
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
			assert.Equal(t, model.RoleStudent, p.Role)
		}
		assert.Equal(t, 1, resolver.calls)
	})

	t.Run("query token only on GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?access_token=good", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/me?access_token=good", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthenticate_DeletedAccount(t *testing.T) {
	r := newAuthRouter(&countingResolver{err: apperr.Unauthorized("account no longer exists")})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAbort(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody ErrorBody
	}{
		{
			name:     "validation fields",
			err:      apperr.ValidationFields(map[string]string{"month": "YYYY-MM"}),
			wantCode: http.StatusBadRequest,
			wantBody: ErrorBody{Error: "validation failed", Type: apperr.TypeValidation, Fields: map[string]string{"month": "YYYY-MM"}},
		},
		{
			name:     "internal hides cause",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: ErrorBody{Error: "the data store rejected the request", Type: apperr.TypeInternal},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { Abort(c, tt.err) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
