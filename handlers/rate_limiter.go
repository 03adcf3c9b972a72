package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleVisitorTTL 超过该时间没有请求的客户端会被清理
const idleVisitorTTL = 10 * time.Minute

// RateLimiterConfig 限流器配置结构
type RateLimiterConfig struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

// RateLimiterStats 限流器统计信息
type RateLimiterStats struct {
	TotalRequests    int64             `json:"totalRequests"`
	AllowedRequests  int64             `json:"allowedRequests"`
	RejectedRequests int64             `json:"rejectedRequests"`
	Clients          int               `json:"clients"`
	Config           RateLimiterConfig `json:"config"`
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 按客户端IP的令牌桶限流
type IPRateLimiter struct {
	cfg RateLimiterConfig

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	stats     RateLimiterStats
	now       func() time.Time
}

// NewIPRateLimiter 创建限流器；Rate<=0 时不限流
func NewIPRateLimiter(cfg RateLimiterConfig) *IPRateLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &IPRateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Enabled 是否启用限流
func (l *IPRateLimiter) Enabled() bool {
	return l.cfg.Rate > 0
}

// Allow 判断该客户端的请求是否放行
func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.Rate), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	l.stats.TotalRequests++
	if !v.limiter.AllowN(now, 1) {
		l.stats.RejectedRequests++
		return false
	}
	l.stats.AllowedRequests++
	return true
}

// Stats 统计快照
func (l *IPRateLimiter) Stats() RateLimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.stats
	out.Clients = len(l.visitors)
	out.Config = l.cfg
	return out
}

// Middleware 限流中间件
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 如果限流未启用，直接通过
		if !l.Enabled() {
			c.Next()
			return
		}
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}

func (l *IPRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleVisitorTTL {
			delete(l.visitors, key)
		}
	}
}
