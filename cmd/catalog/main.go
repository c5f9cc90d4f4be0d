package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"LoanScout/internal/catalog"
	"LoanScout/pkg/kit"
)

func main() {
	service := "catalog"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8082")

	var source catalog.Source
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		source = &catalog.FileSource{Path: path}
	} else {
		source = catalog.NewHTTPSource(getenv("CATALOG_FEED_URL", "http://localhost:9000/data/products.json"))
	}

	s := &catalog.Server{
		Catalog: catalog.NewAccessor(source, log),
		Log:     log,
	}

	reg := prometheus.NewRegistry()
	h := catalog.NewHandler(s, catalog.HTTPDeps{
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

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
