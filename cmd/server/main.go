package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"table_order_backend/internal/broker"
	"table_order_backend/internal/config"
	"table_order_backend/internal/database"
	"table_order_backend/internal/realtime"
	"table_order_backend/internal/repositories"
	"table_order_backend/internal/router"
	"table_order_backend/internal/services"
	"table_order_backend/internal/setmenu"
	"table_order_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", "console")
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.LogError(err, "Server exited with error")
		os.Exit(1)
	}
	utils.LogInfo("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.InitDB(ctx, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.ApplySchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
	}

	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	waitingRepo := repositories.NewWaitingRepository(db)
	chatRepo := repositories.NewChatRepository(db)
	tx := repositories.NewTransactor(db)

	if cfg.DB.SeedMenu {
		if _, err := database.SeedMenu(ctx, menuRepo, tx); err != nil {
			return err
		}
	}

	sets, err := setmenu.LoadFile(cfg.SetMenuFile)
	if err != nil {
		return err
	}
	if cfg.DefaultDrink != "" {
		sets.DefaultDrink = cfg.DefaultDrink
	}

	registry := realtime.NewRegistry(realtime.Options{
		SendBuffer:   cfg.Realtime.SendBuffer,
		WriteTimeout: cfg.Realtime.WriteTimeout,
		PingInterval: cfg.Realtime.PingInterval,
	})
	defer registry.Close()

	var sink realtime.Sink
	if cfg.Kafka.Enabled() {
		eventSink := broker.NewEventSink(broker.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer func() {
			if err := eventSink.Close(); err != nil {
				utils.LogError(err, "Failed to flush Kafka writer")
			}
		}()
		sink = eventSink
		utils.LogInfo("Mirroring events to Kafka", map[string]interface{}{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic})
	}
	notifier := realtime.NewNotifier(registry, sink)

	authService, err := services.NewAuthService(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return err
	}
	menuService := services.NewMenuService(menuRepo, tx, sets)
	orderService := services.NewOrderService(orderRepo, menuRepo, tx, menuService, notifier, registry, services.OrderOptions{
		MaxTables:       cfg.MaxTables,
		KitchenLookback: cfg.KitchenLookback,
	})

	// Resolve the set table once so configuration problems show up at startup.
	if _, err := menuService.SetTable(ctx); err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, router.Deps{
		Menu:           menuService,
		Orders:         orderService,
		Kitchen:        services.NewKitchenService(orderRepo, tx, notifier),
		Waiting:        services.NewWaitingService(waitingRepo, tx, notifier, cfg.MaxTables),
		Chat:           services.NewChatService(chatRepo, tx, notifier, registry, cfg.MaxTables),
		Auth:           authService,
		Registry:       registry,
		MaxTables:      cfg.MaxTables,
		PingInterval:   cfg.Realtime.PingInterval,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	return serve(ctx, cfg, engine, registry.Close)
}

// serve runs the HTTP server until ctx is cancelled, then drains it within
// the shutdown timeout. Hijacked WebSocket connections are not tracked by the
// server, so onShutdown closes them.
func serve(ctx context.Context, cfg *config.Config, handler http.Handler, onShutdown func()) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(onShutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "max_tables": cfg.MaxTables})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.LogInfo("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
