package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/auth"
	"github.com/justsurfingit/jobflow/internal/automation"
	"github.com/justsurfingit/jobflow/internal/config"
	"github.com/justsurfingit/jobflow/internal/database"
	"github.com/justsurfingit/jobflow/internal/handlers"
	"github.com/justsurfingit/jobflow/internal/logger"
	"github.com/justsurfingit/jobflow/internal/services"
	"github.com/justsurfingit/jobflow/internal/store"
	"github.com/justsurfingit/jobflow/internal/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := services.SystemClock(loc)

	// 1. Entity store
	var st store.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		st = database.NewStore(db)
		log.Info("using postgres store")
	} else {
		st = memory.New()
		log.Info("using in-memory store")
	}
	if err := store.Seed(ctx, st, clock.Now(), cfg.SeedSampleData); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	// 2. Services
	llm, err := services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if err != nil {
		return err
	}
	if !llm.Enabled() {
		log.Warn("GEMINI_API_KEY not set, AI features disabled")
	}

	appOpts := []services.ApplicationOption{services.WithLLM(llm)}
	if cfg.AutoApplyEnabled {
		var subOpts []automation.StubOption
		if !cfg.AutoApplySimulateLatency {
			subOpts = append(subOpts, automation.WithoutLatency())
		}
		appOpts = append(appOpts, services.WithSubmitter(automation.NewStubSubmitter(log, subOpts...), cfg.AutoApplyTimeout))
	}

	analytics := services.NewAnalyticsService(st, clock)
	applications := services.NewApplicationService(st, log, appOpts...)
	jobs := services.NewJobService(st, llm, automation.DefaultScrapers(clock.Now), clock.Now, log)
	users := services.NewUserService(st, log)

	resolveUser := func(ctx context.Context) (string, error) {
		u, err := users.ResolveDemoUser(ctx, cfg.DemoUserEmail)
		if err != nil {
			return "", err
		}
		return u.ID, nil
	}
	scrapeUser := func(ctx context.Context) string {
		id, err := resolveUser(ctx)
		if err != nil {
			return ""
		}
		return id
	}

	// 3. Background work
	scheduler := automation.NewScheduler(log)
	if cfg.ScrapeSchedule != "" {
		if err := scheduler.Add(cfg.ScrapeSchedule, "scrape", func(ctx context.Context) {
			n := jobs.SyncAll(ctx, scrapeUser(ctx), cfg.ScrapeTerms, cfg.ScrapeLocation)
			log.Info("scheduled scrape finished", zap.Int("new_jobs", n))
		}); err != nil {
			return err
		}
	}
	scheduler.Start()

	if cfg.GmailCredentialsFile != "" {
		gmailSrv, err := auth.NewGmailService(ctx, auth.GmailConfig{
			CredentialsFile: cfg.GmailCredentialsFile,
			TokenFile:       cfg.GmailTokenFile,
			Prompt:          auth.ConsolePrompt(os.Stdout, os.Stdin),
		}, log)
		if err != nil {
			log.Warn("gmail sync disabled", zap.Error(err))
		} else {
			watcher := services.NewEmailService(services.NewGmailSource(gmailSrv, log), analytics, applications, llm, log)
			go watcher.Run(ctx, cfg.EmailPollInterval, resolveUser)
			log.Info("gmail sync started", zap.Duration("interval", cfg.EmailPollInterval))
		}
	}

	// 4. HTTP
	gin.SetMode(cfg.GinMode)
	router := handlers.NewRouter(handlers.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Scrape:         handlers.ScrapeOptions{Terms: cfg.ScrapeTerms, Location: cfg.ScrapeLocation},
		ResolveUser:    resolveUser,
	}, handlers.Services{
		Analytics:    analytics,
		Applications: applications,
		Jobs:         jobs,
		Users:        users,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
	if err := applications.Close(shutdownCtx); err != nil {
		log.Warn("pending submissions cancelled", zap.Error(err))
	}
	return nil
}
