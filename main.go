package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"battlepass-backend/chain"
	"battlepass-backend/handlers"
	"battlepass-backend/jobs"
	"battlepass-backend/middleware"
	"battlepass-backend/models"
	"battlepass-backend/services"
	"battlepass-backend/utils"
	"battlepass-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stdout)

	dsn := utils.MustGetenv("DATABASE_URL")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Battlepass{},
		&models.Quest{},
		&models.ActivityEvent{},
		&models.CompletedQuest{},
		&models.Participant{},
		&models.BattlepassLevel{},
		&models.BattlepassReward{},
		&models.RewardClaim{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// --- Chain dependencies: one signing identity, one client, one
	// event stream, all injected into the sync worker ---
	signer, err := chain.NewSigner(utils.MustGetenv("CHAIN_SIGNER_KEY"))
	if err != nil {
		log.Fatal("failed to load signing identity:", err)
	}
	rpcClient, err := chain.NewRPCClient(utils.MustGetenv("CHAIN_RPC_URL"), os.Getenv("CHAIN_SERVICE_TOKEN"))
	if err != nil {
		log.Fatal("failed to build chain RPC client:", err)
	}
	eventStream := chain.NewEventStream(utils.MustGetenv("CHAIN_WS_URL"), logger)

	dispatcher := jobs.NewDispatcher(logger, 256)

	matchingService := services.NewMatchingService(db, logger)
	pointsService := services.NewPointsService(db)
	bpService := services.NewBattlepassService(db, logger, dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go eventStream.Run(ctx)

	syncWorker := workers.NewChainSyncWorker(
		db, logger, dispatcher, rpcClient, signer, eventStream, pointsService,
		utils.GetenvDuration("CONFIRM_TIMEOUT", 2*time.Minute),
	)
	go syncWorker.Run(ctx)

	reconciler := workers.NewReconcileWorker(
		matchingService, logger,
		utils.GetenvDuration("RECONCILE_INTERVAL", 1*time.Minute),
	)
	go reconciler.Run(ctx)

	bpService.StartSeasonScheduler(utils.GetenvDuration("BATTLEPASS_SEASON", 90*24*time.Hour))

	app := fiber.New(fiber.Config{})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware(logger, utils.MustGetenv("GATEWAY_SERVICE_TOKEN")))

	allowedOrigins := utils.GetenvDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	origins := strings.Split(allowedOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Identity-ID, X-Guild-ID, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupBattlepassRoutes(app, bpService, pointsService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Quest reconciliation loop running")
	log.Println("✅ Chain sync worker running (signer:", signer.Address()+")")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
