package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sociallogin/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := auth.NewTokenIssuer("secret").WithClock(func() time.Time { return issuedAt })
	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	newRouter := func(issuer *auth.TokenIssuer) *gin.Engine {
		r := gin.New()
		r.GET("/private", Auth(issuer), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
		})
		return r
	}

	testCases := []struct {
		name           string
		issuer         *auth.TokenIssuer
		header         string
		expectedStatus int
	}{
		{name: "Valid token", issuer: issuer, header: "Bearer " + token, expectedStatus: http.StatusOK},
		{name: "Lowercase scheme", issuer: issuer, header: "bearer " + token, expectedStatus: http.StatusOK},
		{name: "Scheme without token", issuer: issuer, header: "Bearer", expectedStatus: http.StatusUnauthorized},
		{name: "Missing header", issuer: issuer, header: "", expectedStatus: http.StatusUnauthorized},
		{name: "Wrong scheme", issuer: issuer, header: "Basic " + token, expectedStatus: http.StatusUnauthorized},
		{name: "Garbage token", issuer: issuer, header: "Bearer garbage", expectedStatus: http.StatusUnauthorized},
		{
			name:           "Expired token",
			issuer:         issuer.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }),
			header:         "Bearer " + token,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			newRouter(tc.issuer).ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tc.expectedStatus == http.StatusOK {
				assert.Equal(t, "user-1", body["user_id"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(discardLogger()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(w, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
}

func TestRateLimiter(t *testing.T) {
	t.Run("Rejects over the burst", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 2, discardLogger())
		r := gin.New()
		r.GET("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			r.ServeHTTP(w, req)
			codes = append(codes, w.Code)
			if w.Code == http.StatusTooManyRequests {
				assert.NotEmpty(t, w.Header().Get("Retry-After"))
			}
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

		// another client has its own bucket
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/login", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Sweep drops idle clients", func(t *testing.T) {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(1, 1, discardLogger())
		rl.now = func() time.Time { return now }

		rl.limiter("a")
		now = now.Add(time.Hour)
		rl.limiter("b")

		assert.Equal(t, 1, rl.Sweep())
	})
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://front.test"}))
	r.GET("/profile", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/profile", nil)
	req.Header.Set("Origin", "http://front.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://front.test", w.Header().Get("Access-Control-Allow-Origin"))
}
