package handler

import (
	"github.com/fallousenghor/visit-backend/internal/middleware"
	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/respond"
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/fallousenghor/visit-backend/pkg/config"
	"github.com/fallousenghor/visit-backend/pkg/logger"
	"github.com/fallousenghor/visit-backend/pkg/metrics"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config      *config.Config
	Auth        *service.AuthService
	Merchants   *service.MerchantService
	Cards       *service.CardService
	Stats       *service.StatsService
	Tokens      middleware.TokenValidator
	HTTPMetrics *metrics.HTTPMetrics
	ScanLimiter *middleware.IPRateLimiter
}

// clientIP reads X-Forwarded-For only from configured proxies; otherwise the
// socket peer is the client.
func clientIP(server config.ServerConfig) echo.IPExtractor {
	ranges, err := server.TrustedProxyRanges()
	if err != nil || len(ranges) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range ranges {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// NewServer builds the echo instance with every route registered.
func NewServer(d Deps) *echo.Echo {
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = respond.HTTPErrorHandler(cfg.Server.IsDevelopment())
	e.Validator = middleware.NewRequestValidator()
	e.IPExtractor = clientIP(cfg.Server)

	// order matters: metrics must observe the status written by the logger's error handling
	e.Use(middleware.RequestIDMiddleware)
	e.Use(d.HTTPMetrics.Middleware())
	e.Use(logger.Middleware())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.Server.FrontendURL},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit(cfg.Server.BodyLimit))

	e.GET("/", Banner(cfg.ServiceName))
	e.GET("/metrics", echo.WrapHandler(d.HTTPMetrics.Handler()))
	if cfg.Media.Driver == "local" {
		e.Static("/uploads", cfg.Media.LocalDir)
	}

	api := e.Group("/api/" + cfg.Server.APIVersion)
	api.GET("/health", Health(cfg.ServiceName, cfg.Server.APIVersion))

	authn := middleware.AuthMiddleware(d.Tokens)
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleAgent)
	admin := middleware.RequireRoles(model.RoleAdmin)

	authHandler := NewAuthHandler(d.Auth)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/profile", authHandler.GetProfile, authn)
	auth.PUT("/profile", authHandler.UpdateProfile, authn)
	auth.PUT("/change-password", authHandler.ChangePassword, authn)

	merchantHandler := NewMerchantHandler(d.Merchants, cfg.Upload.MaxBytes)
	merchants := api.Group("/merchants", authn)
	merchants.POST("", merchantHandler.Create, staff)
	merchants.GET("", merchantHandler.List)
	merchants.GET("/:id", merchantHandler.Get)
	merchants.PUT("/:id", merchantHandler.Update, staff)
	merchants.DELETE("/:id", merchantHandler.Delete, admin)
	merchants.PATCH("/:id/toggle-status", merchantHandler.ToggleStatus, admin)

	cardHandler := NewCardHandler(d.Cards)
	cards := api.Group("/cards")
	cards.GET("/scan/:qrCode", cardHandler.Scan, d.ScanLimiter.Middleware())
	cards.POST("", cardHandler.Create, authn, staff)
	cards.GET("/merchant/:merchantId", cardHandler.GetByMerchant, authn)
	cards.PUT("/:id", cardHandler.Update, authn, staff)
	cards.POST("/:id/regenerate", cardHandler.Regenerate, authn, admin)
	cards.POST("/:id/renew", cardHandler.Renew, authn, staff)
	cards.DELETE("/:id", cardHandler.Delete, authn, admin)

	statsHandler := NewStatsHandler(d.Stats)
	stats := api.Group("/stats", authn)
	stats.GET("/dashboard", statsHandler.Dashboard)
	stats.GET("/merchants/top", statsHandler.TopMerchants)
	stats.GET("/merchant/:merchantId", statsHandler.MerchantStats)
	stats.GET("/merchant/:merchantId/scans", statsHandler.ScanHistory)

	return e
}
