package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"componentdb/internal/retention"
	"componentdb/pkg/api"
	"componentdb/pkg/banner"
	"componentdb/pkg/config"
	"componentdb/pkg/logger"
	"componentdb/pkg/security"
	"componentdb/pkg/store"
)

// build metadata - set via ldflags during build/release
var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfg, envUsed, err := config.LoadEffective(cfgVal)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.Logging.Level)

	// flags win over config/env when explicitly provided
	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = addrVal
	}
	dbPath := dbVal
	if !setFlags["db"] && cfg.Server.DBPath != "" {
		dbPath = cfg.Server.DBPath
	}

	if err := store.Open(dbPath); err != nil {
		log.Fatalf("failed to open pebble at %s: %v", dbPath, err)
	}
	store.SetRequireRegistered(cfg.Server.RequireRegisteredThreads)

	cancelRetention, err := retention.Start(context.Background(), cfg.Retention)
	if err != nil {
		log.Fatalf("failed to start retention: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("signal_received", "signal", s.String())
		cancelRetention()
		if err := store.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
		os.Exit(0)
	}()

	srcs := []string{}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgVal); err == nil {
		srcs = append(srcs, "config")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	banner.Print(addr, dbPath, strings.Join(srcs, ", "), verStr)

	mux := http.NewServeMux()

	// API handler (catch-all under /); no agent collaborator is wired
	// into the binary - deployments run their agent loop against the
	// HTTP surface.
	mux.Handle("/", api.Handler(nil))

	// Serve Swagger UI at /docs and the OpenAPI spec at /openapi.yaml
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))
	mux.Handle("/metrics", promhttp.Handler())

	secCfg := security.SecConfig{
		BackendKeys:  map[string]struct{}{},
		FrontendKeys: map[string]struct{}{},
		AllowUnauth:  cfg.Security.APIKeys.AllowUnauth,
	}
	secCfg.AllowedOrigins = append(secCfg.AllowedOrigins, cfg.Security.CORS.AllowedOrigins...)
	secCfg.RPS = cfg.Security.RateLimit.RPS
	secCfg.Burst = cfg.Security.RateLimit.Burst
	for _, k := range cfg.Security.APIKeys.Backend {
		secCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	if len(secCfg.BackendKeys) == 0 && len(secCfg.FrontendKeys) == 0 && !secCfg.AllowUnauth {
		logger.Warn("no_api_keys_configured", "hint", "set security.api_keys or COMPONENTDB_ALLOW_UNAUTH=1")
	}

	wrapped := security.AuthenticateRequestMiddleware(secCfg)(mux)

	server := &http.Server{
		Addr:              addr,
		Handler:           wrapped,
		ReadHeaderTimeout: 10 * time.Second,
	}
	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	var errServe error
	if cert != "" && key != "" {
		errServe = server.ListenAndServeTLS(cert, key)
	} else {
		errServe = server.ListenAndServe()
	}
	if errServe != nil {
		log.Fatal(errServe)
	}
}
