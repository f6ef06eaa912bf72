package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/storefront/internal/audit"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/auth"
	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	"github.com/smallbiznis/storefront/internal/authorization"
	"github.com/smallbiznis/storefront/internal/category"
	categorydomain "github.com/smallbiznis/storefront/internal/category/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability"
	obsmiddleware "github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/product"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	category.Module,
	product.Module,
	order.Module,
	pdf.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

const apiVersionPrefix = "/v1"

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if obsCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	authsvc     authdomain.Service
	authzSvc    authorization.Service
	auditSvc    auditdomain.Service
	categorySvc categorydomain.Service
	productSvc  productdomain.Service
	orderSvc    orderdomain.Service
	trackingSvc orderdomain.TrackingService
	limiter     *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Authsvc     authdomain.Service
	AuthzSvc    authorization.Service
	AuditSvc    auditdomain.Service
	CategorySvc categorydomain.Service
	ProductSvc  productdomain.Service
	OrderSvc    orderdomain.Service
	TrackingSvc orderdomain.TrackingService
	Limiter     *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		authsvc:     p.Authsvc,
		authzSvc:    p.AuthzSvc,
		auditSvc:    p.AuditSvc,
		categorySvc: p.CategorySvc,
		productSvc:  p.ProductSvc,
		orderSvc:    p.OrderSvc,
		trackingSvc: p.TrackingSvc,
		limiter:     p.Limiter,
	}

	// The unversioned paths stay for existing clients.
	svc.registerRoutes(svc.engine.Group(""))
	svc.registerRoutes(svc.engine.Group(apiVersionPrefix))
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes(root *gin.RouterGroup) {
	s.registerUserRoutes(root)
	s.registerProductRoutes(root)
	s.registerCategoryRoutes(root)
	s.registerOrderRoutes(root)
	s.registerTrackingRoutes(root)

	root.GET("/audit-logs", s.AuthRequired(), s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}

func (s *Server) registerUserRoutes(root *gin.RouterGroup) {
	user := root.Group("/user")
	{
		user.POST("/signup", s.Signup)
		user.POST("/token", s.RateLimit(), s.IssueToken)
		user.POST("/logout", s.AuthRequired(), s.RevokeToken)
		user.GET("/:id", s.AuthRequired(), s.GetUser)
		user.PUT("/:id", s.AuthRequired(), s.UpdateUser)
		user.DELETE("/:id", s.AuthRequired(), s.DeleteUser)
	}
}

func (s *Server) registerProductRoutes(root *gin.RouterGroup) {
	product := root.Group("/product")
	{
		product.GET("/search", s.SearchProducts)
		product.GET("/media/product/:slug/image/:imageId", s.ServeProductImage)
		product.GET("/:id", s.GetProductByID)

		product.POST("/create-product", s.AuthRequired(), s.authorize(authorization.ObjectProduct, authorization.ActionCreate), s.CreateProduct)
		product.PUT("/:id", s.AuthRequired(), s.authorize(authorization.ObjectProduct, authorization.ActionUpdate), s.UpdateProduct)
		product.DELETE("/:id", s.AuthRequired(), s.authorize(authorization.ObjectProduct, authorization.ActionDelete), s.DeleteProduct)
	}
}

func (s *Server) registerCategoryRoutes(root *gin.RouterGroup) {
	category := root.Group("/category")
	{
		category.GET("/search", s.SearchCategories)
		category.GET("/:id", s.GetCategoryByID)

		category.POST("/create-category", s.AuthRequired(), s.authorize(authorization.ObjectCategory, authorization.ActionCreate), s.CreateCategory)
		category.PUT("/:id", s.AuthRequired(), s.authorize(authorization.ObjectCategory, authorization.ActionUpdate), s.UpdateCategory)
		category.DELETE("/:id", s.AuthRequired(), s.authorize(authorization.ObjectCategory, authorization.ActionDelete), s.DeleteCategory)
	}
}

func (s *Server) registerOrderRoutes(root *gin.RouterGroup) {
	order := root.Group("/order", s.AuthRequired())
	{
		order.POST("", s.authorize(authorization.ObjectOrder, authorization.ActionCreate), s.CreateOrder)
		order.GET("", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.ListOrders)
		order.GET("/:id", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.GetOrder)
		order.GET("/:id/receipt", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.GetOrderReceipt)
		order.PATCH("/:id/status", s.authorize(authorization.ObjectOrder, authorization.ActionUpdate), s.UpdateOrderStatus)
	}
}

func (s *Server) registerTrackingRoutes(root *gin.RouterGroup) {
	tracking := root.Group("/tracking", s.AuthRequired())
	{
		tracking.GET("/timeline/:orderId", s.authorize(authorization.ObjectTracking, authorization.ActionView), s.GetTrackingTimeline)
		tracking.GET("/:orderId", s.authorize(authorization.ObjectTracking, authorization.ActionView), s.ListTracking)
		tracking.PUT("/:id", s.authorize(authorization.ObjectTracking, authorization.ActionUpdate), s.UpdateTracking)
		tracking.DELETE("/:id", s.authorize(authorization.ObjectTracking, authorization.ActionDelete), s.DeleteTracking)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
