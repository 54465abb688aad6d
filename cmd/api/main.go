package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"support-platform/internal/agents"
	"support-platform/internal/auth"
	"support-platform/internal/calendar"
	"support-platform/internal/channel"
	"support-platform/internal/config"
	"support-platform/internal/conversation"
	"support-platform/internal/dispatch"
	"support-platform/internal/escalation"
	"support-platform/internal/httpapi"
	"support-platform/internal/notify"
	"support-platform/internal/reporting"
	"support-platform/internal/routing"
	"support-platform/internal/sla"
	"support-platform/pkg/logger"
	"support-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Persistence
	convRepo := conversation.NewPostgresRepo(db)
	agentRepo := agents.NewPostgresRepo(db)
	slaRepo := sla.NewPostgresRepo(db)
	escRepo := escalation.NewPostgresRepo(db)

	// Async dispatch over Redis, with the per-workspace AI cap.
	queue := dispatch.NewRedisQueue(rdb, log)
	queue.AIConcurrency = cfg.Support.AIConcurrency

	engine := routing.NewEngine(agentRepo, convRepo)
	orchestrator := escalation.NewOrchestrator(escRepo, engine, queue, log)

	convService := conversation.NewService(conversation.Deps{
		Repo:               convRepo,
		Assigner:           engine,
		Escalator:          orchestrator,
		EscalationResolver: orchestrator,
		Dispatcher:         queue,
		Settings: conversation.Settings{
			AIEnabled:        cfg.Support.AIEnabled,
			HumanOnlyChannel: channel.Parse(cfg.Support.HumanOnlyChannel),
			DefaultPool:      cfg.Support.DefaultPool,
		},
		Log: log,
	})

	openMin, closeMin, loc := cfg.BusinessWindow()
	cal := calendar.Calendar{OpenMinutes: openMin, CloseMinutes: closeMin, Location: loc}

	reports := reporting.NewService(convRepo, escRepo, slaRepo, agents.Resolver{Repo: agentRepo}, cal, log)
	reports.ScanCap = cfg.Support.ReportScanCap

	registerTaskHandlers(queue, convRepo, agentRepo, log)
	go queue.Run(rootCtx)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := httpapi.Handlers{
		Auth:          authManager,
		Conversations: convService,
		Reports:       reports,
		Router:        engine,
	}
	registerRoutes(r, db, authManager, handlers)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

// registerTaskHandlers wires the two async task kinds.
func registerTaskHandlers(queue *dispatch.RedisQueue, convRepo conversation.Repository, agentRepo agents.Repository, log *slog.Logger) {
	sender := notify.LogSender{Log: log}

	// The NLP backend hooks in here; until one is attached the task only
	// verifies the conversation still wants automated handling.
	queue.Handle(dispatch.TaskTypeAIProcess, func(ctx context.Context, t dispatch.Task) error {
		c, err := convRepo.Get(ctx, t.WorkspaceID, t.ConversationID)
		if err != nil {
			return err
		}
		if c.Status != conversation.StatusAIProcessing {
			// Escalated or resolved since enqueue; drop silently.
			return nil
		}
		log.Info("ai processing", "conversation_id", c.ID, "channel", c.Channel)
		return nil
	})

	queue.Handle(dispatch.TaskTypeNotifyAgent, func(ctx context.Context, t dispatch.Task) error {
		agent, err := agentRepo.Get(ctx, t.WorkspaceID, t.AgentID)
		if err != nil {
			return err
		}
		return sender.Notify(ctx, agent, t.Subject, t.Body)
	})
}
