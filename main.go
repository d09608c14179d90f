package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aura-api/config"
	"aura-api/handlers"
	"aura-api/metrics"
	"aura-api/middleware"
	"aura-api/models"
	"aura-api/services"
	"aura-api/utils"
	"aura-api/web3"
	"aura-api/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.AuraLevel{},
		&models.Lesson{},
		&models.UserLesson{},
		&models.Battle{},
		&models.BattleVote{},
		&models.Vouch{},
		&models.SteezePurchase{},
		&models.WalletBalance{},
		&models.Notification{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.SecurityEvent{},
	); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional integrations stay nil interfaces when unconfigured.
	var chain services.ChainClient
	if cfg.Web3Enabled() {
		dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		client, err := web3.Dial(dialCtx, cfg.RPCURL, cfg.ChainID, cfg.USDCAddress)
		cancel()
		if err != nil {
			log.Printf("⚠️ [WEB3] RPC unavailable, payments disabled: %v", err)
		} else {
			chain = client
			log.Printf("✅ [WEB3] Connected to chain %d", cfg.ChainID)
		}
	}

	var generator services.LessonGenerator
	if cfg.LLMEnabled() {
		generator = services.NewLLMClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel)
	} else {
		log.Println("⚠️ [LESSONS] LLM not configured, using the built-in lesson bank")
	}

	var store services.ObjectStore
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Store(ctx, utils.R2Options{
			AccountID:    cfg.R2AccountID,
			AccessKey:    cfg.R2AccessKey,
			AccessSecret: cfg.R2AccessSecret,
			Bucket:       cfg.R2Bucket,
			CDNBaseURL:   cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		store = r2
	}

	var twitter *services.TwitterClient
	if cfg.TwitterEnabled() {
		twitter = services.NewTwitterClient(cfg.TwitterClientID, cfg.TwitterClientSecret, cfg.TwitterRedirectURL)
	}

	moderator := services.NewModerator(cfg.BannedWords)
	notifications := services.NewNotificationService(db)
	badges := services.NewBadgeService(db, notifications)
	aura := services.NewAuraService(db, badges)
	battles := services.NewBattleService(db, moderator, notifications, badges)
	vouches := services.NewVouchService(db, chain, notifications, badges, moderator)
	steeze := services.NewSteezeService(db, chain, cfg.TreasuryAddress)
	web3Service := services.NewWeb3Service(db, chain, cfg.ChainID, cfg.USDCAddress, cfg.TreasuryAddress)
	security := services.NewSecurityService(db)

	if err := aura.SeedLevels(); err != nil {
		log.Fatal("failed to seed aura levels: ", err)
	}
	if err := badges.SeedBadgeTypes(); err != nil {
		log.Fatal("failed to seed badge types: ", err)
	}

	svc := &handlers.Services{
		Auth:          services.NewAuthService(db, cfg.JWTSecret),
		Twitter:       twitter,
		Users:         services.NewUserService(db, moderator, badges, store),
		Aura:          aura,
		Badges:        badges,
		Lessons:       services.NewLessonService(db, generator, badges),
		Battles:       battles,
		Vouches:       vouches,
		Steeze:        steeze,
		Leaderboard:   services.NewLeaderboardService(db),
		Notifications: notifications,
		Web3:          web3Service,
		Security:      security,
		ClientURL:     cfg.ClientURL,
		AdminToken:    cfg.AdminToken,
	}

	app := fiber.New(fiber.Config{
		AppName:      "aura-api",
		BodyLimit:    int(services.MaxAvatarBytes) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: cfg.AllowedOrigins != "*",
		MaxAge:           86400,
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	// OptionalAuth runs first so blocked requests are attributed to a user.
	api := app.Group("/api",
		middleware.RateLimit(cfg.RateLimitPerMinute),
		middleware.OptionalAuth(svc.Auth),
		middleware.SecurityScanner(security),
	)
	handlers.SetupRoutes(api, svc)

	if _, err := services.StartScheduler(ctx, battles, aura); err != nil {
		log.Fatal("failed to start scheduler: ", err)
	}
	workers.NewPaymentWorker(vouches, steeze).Start(ctx)
	if chain != nil {
		workers.NewBalanceSyncWorker(web3Service).Start(ctx)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️ Shutdown error: %v", err)
	}
}
