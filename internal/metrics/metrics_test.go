package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLogin(t *testing.T) {
	c := NewCollector()

	c.RecordLogin("kakao", OutcomeCreated)
	c.RecordLogin("kakao", OutcomeExisting)
	c.RecordLogin("kakao", OutcomeExisting)
	c.RecordLogin("google", OutcomeExchangeError)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("kakao", OutcomeCreated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues("kakao", OutcomeExisting)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.usersCreated.WithLabelValues("kakao")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.usersCreated.WithLabelValues("google")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCollector()

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/posts/:id", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	for _, path := range []string{"/posts/1", "/posts/2", "/nowhere"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "/posts/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sociallogin_http_requests_total")
}
