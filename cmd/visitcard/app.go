package main

import (
	"context"
	"fmt"

	"github.com/fallousenghor/visit-backend/internal/media"
	"github.com/fallousenghor/visit-backend/internal/qrcode"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/fallousenghor/visit-backend/pkg/config"
	"github.com/fallousenghor/visit-backend/pkg/database"
	"github.com/fallousenghor/visit-backend/pkg/jwtutil"
	"github.com/fallousenghor/visit-backend/pkg/logger"
	"github.com/fallousenghor/visit-backend/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the process-wide state shared by every command.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", cfg.LogConfig()...)

	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		a.log.Warn("Failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

type serviceSet struct {
	jwt       *jwtutil.JWTUtil
	auth      *service.AuthService
	cards     *service.CardService
	merchants *service.MerchantService
	stats     *service.StatsService
	merchRepo repository.MerchantRepository
	subs      repository.SubscriptionRepository
}

// services wires repositories and services; reg receives the business metrics.
func (a *app) services(ctx context.Context, reg promclient.Registerer) (*serviceSet, error) {
	host, err := media.New(ctx, &a.cfg.Media, a.log)
	if err != nil {
		return nil, fmt.Errorf("init media host: %w", err)
	}
	m := prometheus.InitMetrics(reg, a.cfg.Metrics.Prefix)

	users := repository.NewGormUserRepo(a.db)
	merchants := repository.NewGormMerchantRepo(a.db)
	cards := repository.NewGormCardRepo(a.db)
	scans := repository.NewGormScanRepo(a.db)
	subs := repository.NewGormSubscriptionRepo(a.db)

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      a.cfg.JWT.SigningKey,
		ExpirationHours: a.cfg.JWT.ExpirationHours,
	})
	cardSvc := service.NewCardService(service.CardDeps{
		Cards:     cards,
		Merchants: merchants,
		Scans:     scans,
		Codes:     qrcode.UUIDGenerator{},
		Renderer:  qrcode.NewPNGRenderer(),
		Media:     host,
		Metrics:   m,
		Log:       a.log,
	}, a.cfg.Card)

	return &serviceSet{
		jwt:       jwt,
		auth:      service.NewAuthService(users, service.NewBcryptHasher(), jwt, m, a.log),
		cards:     cardSvc,
		merchants: service.NewMerchantService(merchants, cardSvc, host, m, a.log),
		stats:     service.NewStatsService(merchants, scans, subs),
		merchRepo: merchants,
		subs:      subs,
	}, nil
}
