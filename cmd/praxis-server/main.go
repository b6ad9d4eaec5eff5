package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/praxis/praxis/internal/config"
	"github.com/praxis/praxis/internal/domain/appointment"
	"github.com/praxis/praxis/internal/domain/client"
	"github.com/praxis/praxis/internal/domain/form"
	"github.com/praxis/praxis/internal/domain/report"
	"github.com/praxis/praxis/internal/domain/service"
	"github.com/praxis/praxis/internal/domain/servicetemplate"
	"github.com/praxis/praxis/internal/domain/tenant"
	"github.com/praxis/praxis/internal/platform/auth"
	"github.com/praxis/praxis/internal/platform/db"
	"github.com/praxis/praxis/internal/platform/middleware"
	"github.com/praxis/praxis/internal/platform/notification"
	"github.com/praxis/praxis/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "praxis-server",
		Short: "Praxis practice management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	// migrate down - keep as warning
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Use Atlas CLI for migration rollback: atlas schema apply --dir migrations/")
			return nil
		},
	})

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new practice",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			email, _ := cmd.Flags().GetString("email")
			taxPercent, _ := cmd.Flags().GetFloat64("tax-percent")
			adminFee, _ := cmd.Flags().GetFloat64("admin-fee")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			t := &tenant.Tenant{
				Name:       name,
				TaxPercent: taxPercent,
				AdminFee:   adminFee,
				Active:     true,
			}
			if email != "" {
				t.Email = &email
			}
			svc := tenant.NewService(tenant.NewRepoPG(pool))
			if err := svc.Create(ctx, t); err != nil {
				return err
			}
			fmt.Printf("Tenant created: %s (%s)\n", t.Name, t.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Practice name")
	createCmd.Flags().String("email", "", "Contact email for copy summaries and billing")
	createCmd.Flags().Float64("tax-percent", 0, "Tax percentage applied to copied services")
	createCmd.Flags().Float64("admin-fee", 0, "Per-service administrative fee")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Telemetry
	tp := telemetry.NewTelemetryProvider(telemetry.TelemetryConfig{
		ServiceName:    "praxis-server",
		MetricsEnabled: &cfg.MetricsEnabled,
		TracingEnabled: &cfg.TracingEnabled,
		Environment:    cfg.Env,
	})
	defer tp.Shutdown(context.Background())

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.BodyLimitBatch))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))
	e.Use(tp.TracingMiddleware())
	e.Use(tp.MetricsMiddleware())

	// Auth middleware
	if cfg.ResolvedAuthMode() == "development" {
		e.Use(auth.DevAuthMiddleware(auth.AuthSkipper))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
			Skipper:  auth.AuthSkipper,
		}))
	}

	// Tenant middleware
	e.Use(db.TenantMiddleware(cfg.DefaultTenant))

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// API group
	apiV1 := e.Group("/api/v1")

	// Rate limiting middleware
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.HTTPCache(middleware.DefaultCacheConfig()))

	// Notification plumbing. Email falls back to log-only delivery when SMTP
	// is not configured so the template path still runs in development.
	templates := notification.NewTemplateEngine()
	var emailSender notification.EmailSender
	if cfg.SMTPHost != "" {
		emailSender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		emailSender = notification.NewLogEmailSender(logger)
	}
	notifier := notification.NewNotificationManager(emailSender, notification.NewLogSMSSender(logger), templates)
	notification.NewNotificationHandler(notifier).RegisterRoutes(apiV1)

	// Tenant domain
	tenantRepo := tenant.NewRepoPG(pool)
	tenantSvc := tenant.NewService(tenantRepo)
	tenant.NewHandler(tenantSvc).RegisterRoutes(apiV1)

	// Service domain (per-tenant catalog)
	serviceRepo := service.NewRepoPG(pool)
	serviceSvc := service.NewService(serviceRepo)
	service.NewHandler(serviceSvc).RegisterRoutes(apiV1)

	// Form domain
	formRepo := form.NewRepoPG(pool)
	formSvc := form.NewService(formRepo, logger)
	form.NewHandler(formSvc).RegisterRoutes(apiV1)

	// Client domain
	clientRepo := client.NewRepoPG(pool)
	clientSvc := client.NewService(clientRepo, logger)
	client.NewHandler(clientSvc).RegisterRoutes(apiV1)

	// Appointment domain
	apptRepo := appointment.NewRepoPG(pool)
	apptSvc := appointment.NewService(apptRepo, logger)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)

	// Report domain
	reportRepo := report.NewRepoPG(pool)
	reportSvc := report.NewService(reportRepo, logger)
	report.NewHandler(reportSvc).RegisterRoutes(apiV1)

	// Service template catalog and the copy pipeline
	copyNotifier := notification.NewCopyNotifier(notifier, tenantEmailLookup(tenantSvc), logger)
	templateRepo := servicetemplate.NewRepoPG(pool)
	templateSvc := servicetemplate.NewService(templateRepo, tenantSvc, serviceSvc, formSvc, copyNotifier, tp, logger)
	servicetemplate.NewHandler(templateSvc).RegisterRoutes(apiV1)

	// Appointment reminder sweep
	reminders := appointment.NewReminderScheduler(apptRepo, clientSvc, notifier, 24*time.Hour, logger)
	cronRunner := cron.New()
	if err := reminders.Register(cronRunner, cfg.ReminderCron); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.ReminderCron).Msg("invalid reminder cron spec")
	}
	cronRunner.Start()
	defer cronRunner.Stop()
	logger.Info().Str("spec", cfg.ReminderCron).Msg("reminder sweep scheduled")

	// Health and metrics endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, tp.HealthMetrics()))
	e.GET("/metrics", tp.PrometheusHandler())

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// tenantEmailLookup adapts the tenant service to the notification package's
// address lookup. A tenant without an email yields an empty address, which
// the notifier treats as "skip".
func tenantEmailLookup(svc *tenant.Service) notification.TenantEmailLookup {
	return func(ctx context.Context, tenantID uuid.UUID) (string, error) {
		t, err := svc.Get(ctx, tenantID)
		if err != nil {
			return "", err
		}
		if t.Email == nil {
			return "", nil
		}
		return *t.Email, nil
	}
}
