package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/Open-WP-Club/phone-order-woo/docs"
	"github.com/Open-WP-Club/phone-order-woo/internal/api/handler"
	"github.com/Open-WP-Club/phone-order-woo/internal/api/middleware"
	"github.com/Open-WP-Club/phone-order-woo/internal/config"
	"github.com/Open-WP-Club/phone-order-woo/internal/service"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
)

// NewRouter 组装全部路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	// binding:"phone" 直接复用业务校验，400 在绑定层就拦下
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return service.ValidatePhone(fl.Field().String())
		})
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("phone-order"))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.JWT.Secret == "" {
		logger.Warn("jwt secret empty, admin routes are unauthenticated")
	}

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(middleware.RateLimit(cfg.Intake.RateLimit, cfg.Intake.RateBurst))
		{
			public.POST("/phone-orders", h.Submit)
			public.GET("/products/:id/availability", h.CheckAvailability)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(cfg.JWT.Secret))
		{
			admin.GET("/stats", h.Stats)
			admin.GET("/orders/export", h.ExportOrders)
			admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
			admin.GET("/settings", h.GetSettings)
			admin.PUT("/settings", h.UpdateSettings)
		}
	}

	return r
}
