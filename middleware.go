package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	constants "github.com/CodeAndHammer/blackbox/internal/constants"
	models "github.com/CodeAndHammer/blackbox/internal/models"
	util "github.com/CodeAndHammer/blackbox/internal/util"
)

var cspTemplate = "default-src 'self'; script-src 'self' https://cdn.jsdelivr.net https://cdn.jsdelivr.net/npm 'unsafe-inline'; style-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; font-src 'self' https://cdn.jsdelivr.net; img-src 'self' data:; connect-src 'self'; object-src 'none'; base-uri 'self'; form-action 'self'; frame-ancestors 'none';"

// fixedSecurityHeaders are sent on every response regardless of origin.
var fixedSecurityHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", strings.ReplaceAll(cspTemplate, "'self'", "'"+requestOrigin(c.Request)+"'"))
		for name, value := range fixedSecurityHeaders {
			h.Set(name, value)
		}
		if c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func requestOrigin(r *http.Request) string {
	if r.TLS != nil {
		return "https://" + r.Host
	}
	return "http://" + r.Host
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

func requestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		util.Logger().Desugar().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", util.RequestID(c.Request.Context())),
		)
	}
}

func (s *server) csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(constants.CSRFCookieName)
		if err != nil || len(token) < 8 {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err == nil {
				token = fmt.Sprintf("%x", b)
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(constants.CSRFCookieName, token, int(s.app.CookieMaxAge.Seconds()), "/", "", s.app.IsProduction, false)
			}
		}
		c.Set(constants.CSRFContextKey, token)
		c.Next()
	}
}

func (s *server) validateCSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete || method == http.MethodPatch {
			cookie, _ := c.Cookie(constants.CSRFCookieName)
			token := c.GetHeader(constants.CSRFHeaderName)
			if token == "" {
				token = c.PostForm(constants.CSRFFormField)
			}
			if token == "" || cookie == "" || token != cookie {
				util.LogWarn("%sRejected %s %s: invalid csrf token", util.LogPrefix(c.Request.Context()), method, c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": constants.ErrorCodeInvalidCSRF})
				return
			}
		}
		c.Next()
	}
}

func (s *server) getLimiter(key string) *rate.Limiter {
	app := s.app
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	if entry, ok := app.LimiterMap[key]; ok {
		entry.LastAccessTime = time.Now()
		return entry.Limiter
	}

	if key == "" || key == "::1" {
		util.LogDebug("Rate limiter key is empty or loopback: %q", key)
	}
	rps := app.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), app.RateLimitBurst)
	app.LimiterMap[key] = &models.RateLimiterEntry{
		Limiter:        lim,
		LastAccessTime: time.Now(),
	}
	return lim
}

func (s *server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !s.getLimiter(key).Allow() {
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Trigger", "rate-limit-exceeded")
			}
			util.LogWarn("%sRate limited %s on %s", util.LogPrefix(c.Request.Context()), key, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": constants.ErrorCodeRateLimited})
			return
		}
		c.Next()
	}
}

// cleanupStaleRateLimiters drops limiters idle for longer than the TTL.
// If more than LimiterHardCap remain, the least recently used ones are
// evicted until LimiterSoftCap are left.
func (s *server) cleanupStaleRateLimiters(now time.Time) int {
	app := s.app
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	cutoff := now.Add(-app.RateLimiterTTL)
	removed := 0
	for key, entry := range app.LimiterMap {
		if entry.LastAccessTime.Before(cutoff) {
			delete(app.LimiterMap, key)
			removed++
		}
	}

	switch n := len(app.LimiterMap); {
	case n > app.LimiterHardCap:
		keys := lo.Keys(app.LimiterMap)
		slices.SortFunc(keys, func(a, b string) int {
			return app.LimiterMap[a].LastAccessTime.Compare(app.LimiterMap[b].LastAccessTime)
		})
		evict := keys[:n-app.LimiterSoftCap]
		for _, key := range evict {
			delete(app.LimiterMap, key)
		}
		removed += len(evict)
		util.LogWarn("Rate limiter map held %d entries, evicted %d least recently used", n, len(evict))
	case n > app.LimiterSoftCap:
		util.LogWarn("Rate limiter map holds %d entries (soft cap %d)", n, app.LimiterSoftCap)
	}

	if removed > 0 {
		util.LogInfo("Cleaned up %d rate limiters", removed)
	}
	return removed
}

func (s *server) runLimiterCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.cleanupStaleRateLimiters(now)
		}
	}
}
