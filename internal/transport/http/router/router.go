package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gin-gorm-catalog/internal/core/config"
	"gin-gorm-catalog/internal/core/server"
	"gin-gorm-catalog/internal/service"
	"gin-gorm-catalog/internal/transport/http/handler"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
	resp "gin-gorm-catalog/internal/transport/http/response"
	"gin-gorm-catalog/internal/transport/http/web"
)

type Deps struct {
	Log      *zap.Logger
	Mode     string
	HTTP     config.HTTP
	Upload   config.Upload
	Auth     *service.AuthService
	Sessions *service.SessionAuth
	Products *service.ProductService
	// Ping 用于 /health 检查下游（DB 等），可为空
	Ping func(ctx context.Context) error
}

func New(d Deps) (*gin.Engine, error) {
	tpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r := server.NewRouter(d.Log, server.Options{Mode: d.Mode, AllowOrigins: d.HTTP.AllowOrigins})
	r.SetHTMLTemplate(tpl)
	r.MaxMultipartMemory = 8 << 20

	chain := []gin.HandlerFunc{mdw.RequestID()}
	if d.HTTP.RateLimitRPS > 0 {
		chain = append(chain, mdw.RateLimit(rate.Limit(d.HTTP.RateLimitRPS), d.HTTP.RateLimitBurst))
	}
	if d.HTTP.PerIPRPS > 0 {
		chain = append(chain, mdw.RateLimitPerIP(rate.Limit(d.HTTP.PerIPRPS), d.HTTP.PerIPBurst, 10*time.Minute))
	}
	if d.HTTP.MaxConcurrent > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(d.HTTP.MaxConcurrent))
	}
	chain = append(chain, mdw.MaxBodyBytes(d.HTTP.MaxBodyBytes))
	if d.HTTP.RequestTimeoutSec > 0 {
		chain = append(chain, mdw.Timeout(time.Duration(d.HTTP.RequestTimeoutSec)*time.Second))
	}
	chain = append(chain, mdw.Metrics(), mdw.AccessLog(d.Log))
	r.Use(chain...)

	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				resp.Abort(c, resp.CodeUnavailable, "unhealthy")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", mdw.MetricsHandler())

	gate := mdw.NewGate(d.Auth, d.Log)
	mountAPI(r.Group("/api"), gate, d)

	h := handler.New(d.Auth, d.Sessions, d.Products, d.Upload.AllowedExtensions, d.Log)
	mountWeb(r, gate, h, d)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			resp.Abort(c, resp.CodeNotFound, "")
			return
		}
		h.NotFound(c)
	})
	return r, nil
}
