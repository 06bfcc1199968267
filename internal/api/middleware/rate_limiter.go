package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

type RateLimiterConfig struct {
	Max    int
	Window time.Duration
	// KeyGenerator identifica o cliente; padrão é o IP.
	KeyGenerator func(c *fiber.Ctx) string
	// SkipSuccessful devolve a tentativa quando a resposta é < 400, de modo
	// que só falhas consomem a cota.
	SkipSuccessful bool
}

// LoginRateLimiterConfig allows 10 failed logins per minute per client IP.
func LoginRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:            10,
		Window:         time.Minute,
		KeyGenerator:   func(c *fiber.Ctx) string { return c.IP() },
		SkipSuccessful: true,
	}
}

type window struct {
	hits int
	ends time.Time
}

// RateLimiter is a fixed-window counter per key. Expired windows are swept
// in the background until Stop.
type RateLimiter struct {
	cfg     RateLimiterConfig
	mu      sync.Mutex
	windows map[string]*window
	stop    chan struct{}
	once    sync.Once
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	def := LoginRateLimiterConfig()
	if cfg.Max <= 0 {
		cfg.Max = def.Max
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = def.KeyGenerator
	}

	rl := &RateLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go rl.sweep(cfg.Window)
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// hit conta uma tentativa e devolve o total na janela e quando ela termina.
func (rl *RateLimiter) hit(key string, now time.Time) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.ends) {
		w = &window{ends: now.Add(rl.cfg.Window)}
		rl.windows[key] = w
	}
	w.hits++
	return w.hits, w.ends
}

func (rl *RateLimiter) refund(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if w, ok := rl.windows[key]; ok && w.hits > 0 {
		w.hits--
	}
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rl.cfg.KeyGenerator(c)
		now := time.Now()
		hits, ends := rl.hit(key, now)

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(rl.cfg.Max-hits, 0)))
		c.Set("X-RateLimit-Reset", ends.Format(time.RFC3339))

		if hits > rl.cfg.Max {
			wait := int(math.Ceil(ends.Sub(now).Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(max(wait, 1)))
			return domain.ErrRateLimitExceeded
		}

		err := c.Next()
		if rl.cfg.SkipSuccessful && err == nil && c.Response().StatusCode() < fiber.StatusBadRequest {
			rl.refund(key)
		}
		return err
	}
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(max(every, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, w := range rl.windows {
				if now.After(w.ends) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
