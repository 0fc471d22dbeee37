package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// slidingWindow 按 key 记录窗口内的请求时间
type slidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
}

func newSlidingWindow(limit int, window time.Duration) *slidingWindow {
	return &slidingWindow{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

// allow 记录一次请求，超过上限返回 false
func (s *slidingWindow) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := prune(s.hits[key], now.Add(-s.window))
	if len(recent) >= s.limit {
		s.hits[key] = recent
		return false
	}
	s.hits[key] = append(recent, now)
	return true
}

// sweep 删除已无有效记录的 key
func (s *slidingWindow) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	for key, ts := range s.hits {
		if recent := prune(ts, cutoff); len(recent) == 0 {
			delete(s.hits, key)
		} else {
			s.hits[key] = recent
		}
	}
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// RateLimit 按客户端 IP 限流，窗口内超过 maxAttempts 次返回 429
func RateLimit(maxAttempts int, window time.Duration, message string) gin.HandlerFunc {
	limiter := newSlidingWindow(maxAttempts, window)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			limiter.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": message,
			})
			return
		}
		c.Next()
	}
}

// LoginRateLimit 登录接口限流
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	return RateLimit(maxAttempts, window, "登录尝试过于频繁，请稍后再试")
}
