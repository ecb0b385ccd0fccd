package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"wms-admin/internal/core/server"
	mdw "wms-admin/internal/transport/http/middleware"
	resp "wms-admin/internal/transport/http/response"
)

// newEngine builds the engine and middleware chain shared by both surfaces.
func newEngine(d Deps, o Options, surface string) *gin.Engine {
	o = o.withDefaults()
	r := server.NewRouter(d.Log, mdw.Recovered(d.Log))
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(d.Log),
		mdw.Metrics(surface),
		mdw.RateLimit(rate.Limit(o.RateLimitRPS), o.RateLimitBurst),
		mdw.RateLimitPerIP(rate.Limit(o.PerIPRPS), o.PerIPBurst, o.MaxTrackedIPs),
		mdw.ConcurrencyLimit(o.MaxConcurrent),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.RequestTimeout),
	)
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "Route not found") })

	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				resp.Abort(c, http.StatusServiceUnavailable, "Service unavailable")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
