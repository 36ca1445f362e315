package api

import (
	"context"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fuel-dashboard-backend/config"
	"fuel-dashboard-backend/internal/dashboard"
	"fuel-dashboard-backend/internal/mw"
	"fuel-dashboard-backend/internal/store"
)

// limiterIdle is how long a client may stay silent before its rate limiter
// is dropped.
const limiterIdle = 10 * time.Minute

// NewRouter creates and configures a new Gin router. live serves the
// websocket view stream. Background housekeeping stops with ctx.
func NewRouter(ctx context.Context, cfg *config.ServerConfig, ctrl *dashboard.Controller, s store.Store, live http.Handler, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(ctrl, s, webpushOptions)

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	rateLimiter := mw.RateLimiter(limiter)
	go evictIdle(ctx, limiter)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.ResponseCache(cache.New(ttl, 2*ttl), ttl)

	r.GET("/", handler.Index)
	if live != nil {
		r.GET("/ws", gin.WrapH(live))
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/view", handler.GetView)
		api.POST("/toggle", handler.Toggle)
		api.POST("/refresh", handler.Refresh)

		api.GET("/history/samples", caching, handler.GetSamples)
		api.GET("/history/sessions", caching, handler.GetSessions)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

func evictIdle(ctx context.Context, limiter *mw.IPRateLimiter) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Evict(limiterIdle)
		}
	}
}
