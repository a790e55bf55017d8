package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bgmi-arena/config"
	"bgmi-arena/database"
	"bgmi-arena/handlers"
	"bgmi-arena/middleware"
	"bgmi-arena/services"
	"bgmi-arena/utils"
	"bgmi-arena/workers"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("database unavailable", "err", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("migration failed", "err", err)
		}
	}

	storage, err := utils.NewStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize storage", "driver", cfg.Storage.Driver, "err", err)
	}

	metrics := services.NewMetrics()
	ledger := services.NewLedgerService(db, metrics)
	tournaments := services.NewTournamentService(db, ledger, storage, cfg.Schedule.Location(), metrics)

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: utils.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		MaxAge:       86400,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(services.NewMetricsHandler()))
	if cfg.Storage.Driver != "r2" {
		app.Static(cfg.Storage.PublicBaseURL, cfg.Storage.UploadDir)
	}

	handlers.SetupRoutes(app, handlers.Services{
		Auth:         services.NewAuthService(services.NewStaticCredentialStore(cfg.Admin.Email, cfg.Admin.PasswordHash), cfg.Admin),
		Contestants:  services.NewContestantService(db),
		Ledger:       ledger,
		Transactions: services.NewTransactionService(db, ledger, cfg.Wallet),
		Approvals:    services.NewApprovalService(db, ledger, metrics),
		Joins:        services.NewJoinService(db, ledger),
		Tournaments:  tournaments,
		Uploads:      services.NewUploadService(storage),
	})

	statusWorker := workers.NewTournamentStatusWorker(tournaments, cfg.Schedule.StatusInterval)
	if err := statusWorker.Start(ctx); err != nil {
		log.Fatal("failed to start status worker", "err", err)
	}

	go func() {
		addr := ":" + strings.TrimPrefix(cfg.Server.Port, ":")
		if err := app.Listen(addr); err != nil {
			log.Error("server error", "err", err)
			stop()
		}
	}()

	log.Info("server running", "port", cfg.Server.Port, "origins", cfg.Server.AllowedOrigins, "tz", cfg.Schedule.Timezone)

	<-ctx.Done()
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
