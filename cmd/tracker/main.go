package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"LoanScout/internal/admin"
	"LoanScout/internal/clicks"
	"LoanScout/pkg/kit"
)

func main() {
	service := "tracker"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8083")

	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	storage := newStorage(log)
	reporter := newReporter(log)

	recorder := clicks.NewRecorder(context.Background(), clicks.Config{
		Storage:  storage,
		Reporter: reporter,
		Log:      log,
		Key:      getenv("CLICK_LOG_KEY", clicks.DefaultLogKey),
	})

	s := &clicks.Server{
		Recorder: recorder,
		Storage:  storage,
		Auth: &admin.Auth{
			Hash:   []byte(os.Getenv("ADMIN_PASSWORD_HASH")),
			Tokens: admin.NewTokenMaker(jwtSecret),
			Log:    log,
		},
		Log: log,
	}

	reg := prometheus.NewRegistry()
	h := clicks.NewHandler(s, clicks.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func newStorage(log *zap.Logger) clicks.Storage {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Info("DATABASE_URL not set, click log is in-memory only")
		return clicks.NewMemStorage()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("open database failed", zap.Error(err))
	}
	return clicks.NewPostgresStorage(db)
}

func newReporter(log *zap.Logger) clicks.Reporter {
	endpoint := os.Getenv("ANALYTICS_URL")
	if endpoint == "" {
		log.Info("ANALYTICS_URL not set, analytics reporting disabled")
		return clicks.NopReporter{}
	}
	return clicks.NewHTTPReporter(endpoint)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
