package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"runsight_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type lastSeenRecorder struct {
	ch chan uint
}

func (r *lastSeenRecorder) UpdateLastSeen(userID uint) error {
	r.ch <- userID
	return nil
}

func activityTestRouter(recorder *lastSeenRecorder, claims *util.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(util.ContextUserKey, claims)
		}
		c.Next()
	})
	router.Use(ActivityMiddleware(recorder))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestActivityMiddlewareRecordsLastSeen(t *testing.T) {
	recorder := &lastSeenRecorder{ch: make(chan uint, 1)}
	router := activityTestRouter(recorder, &util.Claims{UserID: 7})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// 更新是异步的，等它到达
	select {
	case got := <-recorder.ch:
		if got != 7 {
			t.Errorf("last_seen recorded for user %d, want 7", got)
		}
	case <-time.After(time.Second):
		t.Fatal("last_seen was never recorded")
	}
}

func TestActivityMiddlewareSkipsAnonymous(t *testing.T) {
	recorder := &lastSeenRecorder{ch: make(chan uint, 1)}
	router := activityTestRouter(recorder, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	select {
	case got := <-recorder.ch:
		t.Fatalf("unexpected last_seen update for user %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}
