package security

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// 抓取指标、websocket 长连接和文档页面不计入限流
var rateLimitExempt = []string{"/metrics", "/api/ws", "/swagger/"}

// CORS 仅回显白名单中的 Origin，白名单包含 "*" 时放行任意来源
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	_, wildcard := allowed["*"]

	const allowHeaders = "Content-Type, Content-Length, Authorization, Accept, Origin, Cache-Control, X-Requested-With"
	const allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok || wildcard {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
		}
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Secure 设置常用安全响应头
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 按客户端 IP 保存令牌桶，空闲超过 idle 的条目由后台协程清理
type limiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func newLimiterStore(limit rate.Limit, burst int, idle time.Duration) *limiterStore {
	if idle < time.Minute {
		idle = time.Minute
	}
	s := &limiterStore{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idle:     idle,
	}
	go s.cleanup(time.Minute)
	return s
}

func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	s.mu.Unlock()
	return v.limiter.Allow()
}

func (s *limiterStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		for key, v := range s.visitors {
			if time.Since(v.lastSeen) > s.idle {
				delete(s.visitors, key)
			}
		}
		s.mu.Unlock()
	}
}

func exempt(path string) bool {
	for _, prefix := range rateLimitExempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RateLimiter 每个 IP 在 window 内最多 maxRequests 个请求
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	store := newLimiterStore(rate.Every(window/time.Duration(maxRequests)), maxRequests, window*3)

	return func(c *gin.Context) {
		if exempt(c.Request.URL.Path) {
			c.Next()
			return
		}
		if !store.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": http.StatusTooManyRequests, "message": "too many requests"})
			return
		}
		c.Next()
	}
}

// LoginLimiter 限制家长 PIN 登录频率，防止穷举 4 位 PIN
func LoginLimiter(attemptsPerMinute int) gin.HandlerFunc {
	if attemptsPerMinute <= 0 {
		attemptsPerMinute = 5
	}
	store := newLimiterStore(rate.Every(time.Minute/time.Duration(attemptsPerMinute)), attemptsPerMinute, 10*time.Minute)

	return func(c *gin.Context) {
		if !store.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": http.StatusTooManyRequests, "message": "too many login attempts"})
			return
		}
		c.Next()
	}
}
