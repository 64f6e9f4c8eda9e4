package commentary

import (
	"sync"
	"time"

	"github.com/eleven-am/live-commentary/internal/shared"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             5,
		CleanupInterval:   5 * time.Minute,
	}
}

type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	config   RateLimiterConfig
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newRateLimiterStore(cfg RateLimiterConfig) *rateLimiterStore {
	store := &rateLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go store.cleanupLoop()
	} else {
		close(store.done)
	}
	return store
}

func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.RLock()
	limiter, exists := s.limiters[key]
	s.mu.RUnlock()

	if exists {
		return limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists = s.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), s.config.Burst)
	s.limiters[key] = limiter
	return limiter
}

func (s *rateLimiterStore) allow(key string) bool {
	return s.getLimiter(key).Allow()
}

func (s *rateLimiterStore) cleanupLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			for key := range s.limiters {
				delete(s.limiters, key)
			}
			s.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *rateLimiterStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// rateLimitKey buckets a caller by client IP and widget.
func rateLimitKey(ip, widgetID string) string {
	return ip + "|" + widgetID
}

// middleware limits requests per client IP and widget.
func (s *rateLimiterStore) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !s.allow(rateLimitKey(c.RealIP(), c.Param("id"))) {
				return shared.TooManyRequests("rate_limit_exceeded", "too many requests")
			}
			return next(c)
		}
	}
}
