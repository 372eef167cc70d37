package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"retailcore/internal/core/apperror"
	appctx "retailcore/internal/core/context"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/auth"
	"retailcore/internal/infrastructure/http/v1/middleware"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Trace())
	r.Use(middleware.ErrorHandler())
	return r
}

func TestErrorHandler_AppError(t *testing.T) {
	r := newTestRouter()
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientStock("p1", 5, 2))
		c.Abort()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInsufficientStock)
	assert.Contains(t, w.Body.String(), `"available":2`)
}

func TestErrorHandler_UnknownErrorIsGeneric(t *testing.T) {
	r := newTestRouter()
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Abort()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	r := newTestRouter()
	r.GET("/panic", func(c *gin.Context) {
		panic("broken handler")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "broken handler")
}

func TestTrace_GeneratesAndEchoesIDs(t *testing.T) {
	r := newTestRouter()
	r.GET("/ping", func(c *gin.Context) {
		trace := appctx.GetTrace(c.Request.Context())
		assert.NotNil(t, trace)
		assert.NotEmpty(t, trace.RequestID)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderTraceID))
}

func TestTrace_KeepsCallerRequestID(t *testing.T) {
	r := newTestRouter()
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-42")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(middleware.HeaderRequestID))
}

func TestAuth(t *testing.T) {
	tokens := auth.NewJWTService("test-secret", time.Hour)
	user := &auth.User{ID: id.New(), Username: "cashier", Role: "staff"}
	token, err := tokens.Generate(user)
	assert.NoError(t, err)

	r := newTestRouter()
	protected := r.Group("")
	protected.Use(middleware.Auth(validatorFunc(tokens.Validate)))
	protected.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, user.ID.String(), w.Body.String())
			}
		})
	}
}

type validatorFunc func(token string) (*auth.Claims, error)

func (f validatorFunc) ValidateToken(token string) (*auth.Claims, error) {
	return f(token)
}
