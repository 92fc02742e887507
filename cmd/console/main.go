package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/customer-console/internal/app"
	"github.com/Dhoini/customer-console/internal/config"
	"github.com/Dhoini/customer-console/internal/events"
	"github.com/Dhoini/customer-console/internal/view"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type snapshot struct {
	Customers    view.Page[view.CustomerRow]    `json:"customers"`
	Transactions view.Page[view.TransactionRow] `json:"transactions"`
}

func main() {
	envPath := flag.String("env", ".env", "dotenv file loaded outside production")
	configDir := flag.String("config", ".", "directory holding config.yaml")
	search := flag.String("search", "", "search text applied to both lists")
	page := flag.Int("page", 1, "page to print")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics and refresh periodically instead of exiting")
	interval := flag.Duration("interval", 30*time.Second, "refresh interval with -metrics-addr")
	flag.Parse()

	cfg, err := config.LoadConfig(*envPath, *configDir)
	if err != nil {
		logger.New(logger.INFO).Fatalw("Failed to load configuration", "error", err)
	}

	log := logger.New(logger.ParseLevel(cfg.Log.Level))
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Events.Enabled {
		if err := events.EnsureTopic(ctx, cfg.Events.Brokers, cfg.Events.Topic, 1, log); err != nil {
			log.Warnw("Could not ensure the mutations topic, continuing", "error", err)
		}
	}

	registry := prometheus.NewRegistry()
	console, err := app.New(cfg, log, app.WithRegistry(registry))
	if err != nil {
		log.Fatalw("Failed to start console", "error", err)
	}
	defer func() {
		if err := console.Close(); err != nil {
			log.Errorw("Error closing console", "error", err)
		}
	}()

	session, err := console.Auth.Login(ctx, os.Getenv(config.EnvPrefix+"_USERNAME"), os.Getenv(config.EnvPrefix+"_PASSWORD"))
	if err != nil {
		log.Errorw("Login failed", "error", err)
		return
	}
	defer func() {
		if err := console.Auth.Logout(context.Background(), session); err != nil {
			log.Warnw("Logout failed", "error", err)
		}
	}()
	log.Infow("Logged in", "user", session.User.Username)

	customers := view.DefaultCustomerFilter()
	transactions := view.DefaultTransactionFilter()
	customers.Search, transactions.Search = *search, *search
	customers.Page, transactions.Page = *page, *page

	show := func() {
		if err := console.Refresh(ctx); err != nil {
			return
		}
		out := snapshot{
			Customers:    console.CustomerPage(customers),
			Transactions: console.TransactionPage(transactions),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Errorw("Failed to write snapshot", "error", err)
		}
	}

	if *metricsAddr == "" {
		show()
		return
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	httpServer := &http.Server{
		Addr:         *metricsAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("Serving metrics", "addr", *metricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("Metrics server stopped", "error", err)
			cancel()
		}
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	show()
	for {
		select {
		case <-ctx.Done():
			log.Infow("Shutdown signal received")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Errorw("Metrics server shutdown error", "error", err)
			}
			return
		case <-ticker.C:
			show()
		}
	}
}
