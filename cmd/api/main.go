package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/flowpay/helpdesk/internal/api/http"
	"github.com/flowpay/helpdesk/internal/api/http/handlers"
	"github.com/flowpay/helpdesk/internal/api/ws"
	"github.com/flowpay/helpdesk/internal/config"
	"github.com/flowpay/helpdesk/internal/dispatch"
	"github.com/flowpay/helpdesk/internal/events"
	"github.com/flowpay/helpdesk/internal/observability"
	"github.com/flowpay/helpdesk/internal/persistence"
	"github.com/flowpay/helpdesk/internal/repository"
	"github.com/flowpay/helpdesk/internal/service"
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
	ticketRepo := repository.NewTicketRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	hub := ws.NewHub(logger)
	hub.Subscribe(dispatcher)

	dispatchQueue := dispatch.NewRedisQueue(redis.Client, cfg.Dispatch.KeyPrefix)

	distribution := service.NewDistributionService(service.DistributionDependencies{
		TicketRepo: ticketRepo,
		AgentRepo:  agentRepo,
		TeamRepo:   teamRepo,
		Queue:      dispatchQueue,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	dashboardService := service.NewDashboardService(ticketRepo, agentRepo, teamRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		AgentRepo:    agentRepo,
		Distribution: distribution,
		Dashboard:    dashboardService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	agentService := service.NewAgentService(service.AgentDependencies{
		AgentRepo:    agentRepo,
		TeamRepo:     teamRepo,
		Distribution: distribution,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	teamService := service.NewTeamService(teamRepo, agentRepo, ticketRepo)

	worker := dispatch.NewWorker(redis.Client, dispatchQueue, distribution, cfg.Dispatch, logger)
	worker.Start(ctx)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Tickets:   handlers.NewTicketsHandler(ticketService),
		Agents:    handlers.NewAgentsHandler(agentService),
		Teams:     handlers.NewTeamsHandler(teamService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Hub:       hub,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	worker.Wait()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
