package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/artblog/blog/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandlePanics(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), gin.CustomRecovery(HandlePanics()))
	r.GET("/boom", func(c *gin.Context) { panic("kiln exploded") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	r := gin.New()
	r.Use(RequestID(), LoggingMiddleware())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/missing"`)
}

func TestRequireSession(t *testing.T) {
	sessions := session.NewManager(nil, nil, nil)
	sess, err := sessions.Login(context.Background(), "token", false)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", RequireSession(sessions), func(c *gin.Context) {
		c.String(http.StatusOK, GetSession(c).Token)
	})

	tests := []struct {
		name     string
		cookie   string
		wantCode int
	}{
		{name: "no cookie", wantCode: http.StatusUnauthorized},
		{name: "unknown session", cookie: "nope", wantCode: http.StatusUnauthorized},
		{name: "live session", cookie: sess.ID, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "token", w.Body.String())
			}
		})
	}
}
