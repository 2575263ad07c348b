package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/config"
	"Storefront/internal/session"
	"Storefront/internal/storefront"
	"Storefront/pkg/kit"
)

const loadTimeout = 15 * time.Second

func main() {
	service := "storefront"
	log := kit.NewLogger(service, "info")

	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	log = kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	sessions := session.NewManager(cfg.SessionTTL)
	loadCatalog(log, cfg, sessions)

	s := &storefront.Server{
		Log:            log,
		Sessions:       sessions,
		Tokens:         session.NewTokenMaker(cfg.JWTSecret),
		SessionTTL:     cfg.SessionTTL,
		StoreName:      cfg.StoreName,
		WhatsAppNumber: cfg.WhatsAppNumber,
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// loadCatalog performs the one-shot catalog fetch. A failure is not fatal:
// the service comes up with an unloaded catalog and browse endpoints serve
// the could-not-load state until a restart.
func loadCatalog(log *zap.Logger, cfg *config.Config, sessions *session.Manager) {
	source, err := buildSource(cfg)
	if err != nil {
		log.Warn("catalog source unavailable", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	products, err := source.Fetch(ctx)
	if err != nil {
		log.Warn("catalog load failed", zap.Error(err))
		return
	}

	sessions.SetCatalog(products)
	log.Info("catalog loaded", zap.Int("products", len(products)))
}

func buildSource(cfg *config.Config) (catalog.Source, error) {
	switch {
	case cfg.CatalogDSN != "":
		db, err := sql.Open("pgx", cfg.CatalogDSN)
		if err != nil {
			return nil, err
		}
		return catalog.NewPostgresSource(db), nil
	case cfg.CatalogURL != "":
		return catalog.NewHTTPSource(cfg.CatalogURL), nil
	default:
		return catalog.FileSource{Path: cfg.CatalogFile}, nil
	}
}
