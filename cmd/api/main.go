package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/serviceflow/helpdesk-service/internal/access"
	httptransport "github.com/serviceflow/helpdesk-service/internal/api/http"
	"github.com/serviceflow/helpdesk-service/internal/api/http/handlers"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/config"
	"github.com/serviceflow/helpdesk-service/internal/email"
	"github.com/serviceflow/helpdesk-service/internal/events"
	"github.com/serviceflow/helpdesk-service/internal/observability"
	"github.com/serviceflow/helpdesk-service/internal/persistence"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	"github.com/serviceflow/helpdesk-service/internal/service"
	"github.com/serviceflow/helpdesk-service/internal/storage"
	"github.com/serviceflow/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	worklogRepo := repository.NewWorklogRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	configRepo := repository.NewConfigRepository(pool)

	guard := access.NewGuard()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	store := storage.NewLocalStore(cfg.Storage)
	sender := email.NewSMTPSender(cfg.Email, configRepo)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Guard:      guard,
		Dispatcher: dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		Tickets:        ticketService,
		Store:          store,
		Guard:          guard,
		Dispatcher:     dispatcher,
	})
	worklogService := service.NewWorklogService(worklogRepo, ticketService)
	userService := service.NewUserService(userRepo, guard, cfg.Auth.BcryptCost)
	companyService := service.NewCompanyService(companyRepo, guard)
	statsService := service.NewStatsService(service.StatsDependencies{
		StatsRepo: statsRepo,
		UserRepo:  userRepo,
		Guard:     guard,
		Cache:     redis,
		Logger:    logger,
		SLA:       cfg.SLA,
		CacheTTL:  cfg.Stats.CacheTTL(),
	})
	systemService := service.NewSystemService(configRepo, sender, guard)

	notificationService := service.NewNotificationService(dispatcher, ticketRepo, userRepo, sender, logger)
	worker.StartNotificationWorker(notificationService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, guard),
		Comments:       handlers.NewCommentsHandler(commentService, guard),
		Worklogs:       handlers.NewWorklogsHandler(worklogService, guard),
		Users:          handlers.NewUsersHandler(userService, guard),
		Companies:      handlers.NewCompaniesHandler(companyService),
		Stats:          handlers.NewStatsHandler(statsService, guard),
		System:         handlers.NewSystemHandler(systemService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
