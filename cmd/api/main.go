package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/config"
	"github.com/noah-isme/campus-appeals-api/internal/database"
	"github.com/noah-isme/campus-appeals-api/internal/handler"
	"github.com/noah-isme/campus-appeals-api/internal/middleware"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
	"github.com/noah-isme/campus-appeals-api/internal/router"
	"github.com/noah-isme/campus-appeals-api/internal/service"
	"github.com/noah-isme/campus-appeals-api/pkg/storage"
)

const streamKeepAlive = 25 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, cfg.AppEnv == "development")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; rbac cache and cross-node events disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open image storage")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	bounds := service.ListBounds{Default: cfg.ListDefaultLimit, Max: cfg.ListMaxLimit}

	transactor := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	rbacRepo := repository.NewRBACRepository(db)
	classIssueRepo := repository.NewClassIssueRepository(db)
	campusRepo := repository.NewCampusIssueRepository(db)
	examRepo := repository.NewExamAppealRepository(db)
	ledgerRepo := repository.NewStatusLedgerRepository(db)
	assignmentRepo := repository.NewComplaintAssignmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, natsConn, cfg.NATSSubject, logger)
	notificationService.Start(ctx)

	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		Transactor:    transactor,
		Entries:       ledgerRepo,
		Assignments:   assignmentRepo,
		Notifications: notificationRepo,
		Locators: map[models.ComplaintType]service.ComplaintLocator{
			models.ComplaintClassIssue: classIssueRepo,
			models.ComplaintCampusEnv:  campusRepo,
			models.ComplaintExamAppeal: examRepo,
		},
		Publisher: notificationService,
	}, logger)

	imageService := service.NewImageService(store, cfg.UploadMaxSizeMB, cfg.UploadMaxFiles, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		Authenticator: service.NewDatabaseAuthenticator(userRepo),
		Users:         userRepo,
		Sessions:      sessionRepo,
		Academics:     academicRepo,
		Roles:         service.NewRoleProvider(rbacRepo, redisClient, cfg.RBACTTL, cfg.ModuleCap, logger),
		Validator:     validate,
		Secret:        cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
	}, logger)

	classIssueService := service.NewClassIssueService(service.ClassIssueDependencies{
		Transactor:  transactor,
		Issues:      classIssueRepo,
		Academics:   academicRepo,
		Users:       userRepo,
		Assignments: assignmentRepo,
		Ledger:      ledgerService,
		Validator:   validate,
		ReviewRole:  cfg.ReviewRole,
		Bounds:      bounds,
	}, logger)

	campusService := service.NewCampusService(service.CampusDependencies{
		Transactor:  transactor,
		Complaints:  campusRepo,
		Users:       userRepo,
		Assignments: assignmentRepo,
		Ledger:      ledgerService,
		Images:      imageService,
		Validator:   validate,
		ReviewRole:  cfg.ReviewRole,
		Bounds:      bounds,
	}, logger)

	examService := service.NewExamService(service.ExamDependencies{
		Transactor: transactor,
		Appeals:    examRepo,
		Academics:  academicRepo,
		Ledger:     ledgerService,
		Validator:  validate,
		Bounds:     bounds,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB*cfg.UploadMaxFiles + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		ClassIssueHandler:   handler.NewClassIssueHandler(classIssueService, logger),
		CampusHandler:       handler.NewCampusHandler(campusService, logger),
		ExamHandler:         handler.NewExamHandler(examService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, streamKeepAlive),
		HealthChecks:        healthChecks(db, redisClient, natsConn),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret, authService),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = zerolog.MultiLevelWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
}

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return storage.NewLocal(cfg.StorageLocalPath)
	case "minio":
		return storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
	case "cloudinary":
		return storage.NewCloudinary(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthCheckFunc {
	checks := map[string]handler.HealthCheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		checks["nats"] = func(ctx context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("nats status %s", natsConn.Status())
			}
			return nil
		}
	}
	return checks
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
