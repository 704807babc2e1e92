package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}
	return RateLimitMiddleware(redisClient, config, zap.NewNop())(okHandler()), mr
}

func hit(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/product/text/asus", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly the limit is served, the rest get 429", prop.ForAll(
		func(limit int, excess int) bool {
			handler, _ := newRateLimitedHandler(t, limit)

			served, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				// Source ports change between connections; the limit must not.
				switch hit(handler, fmt.Sprintf("192.168.1.100:%d", 40000+i)).Code {
				case http.StatusOK:
					served++
				case http.StatusTooManyRequests:
					blocked++
				}
			}
			return served == limit && blocked == excess
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_HeadersAndWindowReset(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 2)

	w := hit(handler, "10.0.0.1:1111")
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	hit(handler, "10.0.0.1:1111")
	w = hit(handler, "10.0.0.1:1111")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1111").Code)

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1111").Code)
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1111").Code)
	}
}

func TestRateLimitClientID(t *testing.T) {
	req := httptest.NewRequest("GET", "/me", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "ip:10.1.2.3", rateLimitClientID(req))

	req.RemoteAddr = "10.1.2.3"
	assert.Equal(t, "ip:10.1.2.3", rateLimitClientID(req))

	req = req.WithContext(WithIdentity(req.Context(), "u1", "user"))
	assert.Equal(t, "user:u1", rateLimitClientID(req))
}
