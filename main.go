package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"atlas/config"
	"atlas/handlers"
	"atlas/middleware"
	"atlas/services"
	"atlas/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Store backend: %s", cfg.Store.Backend)
	log.Printf("Cache TTL: %s, stale threshold: %s", cfg.CacheTTLDuration(), cfg.StaleThresholdDuration())

	// 2. Core Services
	geo, err := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	if err != nil {
		log.Printf("GeoIP DB not usable at %s: %v", cfg.GeoIP.DBPath, err)
	}
	defer geo.Close()

	store, err := services.NewJSONStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close(context.Background())

	discord, err := services.NewDiscordService(cfg.Discord.BotToken, cfg.Discord.ChannelID)
	if err != nil {
		log.Printf("Discord notifier disabled: %v", err)
		discord = nil
	}
	defer discord.Close()

	prpc := services.NewPRPCClient(cfg.RequestTimeoutDuration(), cfg.PRPC.DefaultPort)
	resolver := services.NewSeedResolver(prpc, cfg)
	normalizer := services.NewNormalizer(cfg.Poll.StaleThresholdSeconds, geo)
	aggregator := services.NewAggregator()

	alertService := services.NewAlertService(store, cfg.Alerts.LegacyEnabled, discord)
	historyService := services.NewHistoryService(store, alertService, cfg.History.MaxEntries)
	snapshotService := services.NewSnapshotService(resolver, normalizer, aggregator, historyService, cfg.CacheTTLDuration())

	// 3. Web Server
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	// 4. Handlers
	pnodeHandlers := handlers.NewPNodeHandlers(snapshotService, historyService)
	alertHandlers := handlers.NewAlertHandlers(alertService)
	exportHandlers := handlers.NewExportHandlers(snapshotService, historyService, cfg.Export.Token)
	systemHandlers := handlers.NewSystemHandlers(store)

	// 5. Routes
	e.GET("/health", systemHandlers.GetHealth)

	api := e.Group("/api")
	api.GET("/pnodes", pnodeHandlers.GetSnapshot)
	api.GET("/history", pnodeHandlers.GetHistory)

	webhooks := api.Group("/alerts/webhooks")
	webhooks.GET("", alertHandlers.ListWebhooks)
	webhooks.POST("", alertHandlers.CreateWebhook)
	webhooks.PUT("/:webhookId", alertHandlers.UpdateWebhook)
	webhooks.DELETE("/:webhookId", alertHandlers.DeleteWebhook)

	export := api.Group("/export")
	export.GET("/summary", exportHandlers.GetSummary)
	export.GET("/history", exportHandlers.GetHistory)
	export.GET("/nodes", exportHandlers.GetNodes)

	// 6. Start Server with Graceful Shutdown
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("Server running on http://%s", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Shutdown complete")
}
