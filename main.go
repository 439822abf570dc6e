package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/config"
	"github.com/smartbizhq/smartbiz-engine/pkg/database"
	"github.com/smartbizhq/smartbiz-engine/pkg/handlers"
	"github.com/smartbizhq/smartbiz-engine/pkg/llm"
	"github.com/smartbizhq/smartbiz-engine/pkg/logging"
	"github.com/smartbizhq/smartbiz-engine/pkg/mcp"
	mcpauth "github.com/smartbizhq/smartbiz-engine/pkg/mcp/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/mcp/tools"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// shutdownTimeout bounds draining of in-flight requests on SIGTERM.
const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := buildLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// buildLogger picks the log encoding by environment: human-readable for
// local work, JSON everywhere else.
func buildLogger(env string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if env == "local" {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis", cfg.Redis.Addr),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	db, err := database.NewConnectionFromConfig(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := applyMigrations(ctx, cfg, logger); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if redisClient == nil {
		return errors.New("redis address is required (artifact store, rate limiter)")
	}
	defer redisClient.Close()

	gateway, err := llm.NewGatewayFromConfig(ctx, &cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize AI gateway: %w", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)
	payrollRepo := repositories.NewPayrollRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	workflowRepo := repositories.NewWorkflowRepository(db)
	notifRepo := repositories.NewNotificationRepository(db)
	artifactRepo := repositories.NewArtifactRepository(redisClient)

	// Identity. Local deployments verify the HS256 tokens the engine
	// issues; configuring JWKS endpoints switches verification to an
	// external issuer.
	tokenService := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL())
	var verifier auth.TokenVerifier = tokenService
	if len(cfg.Auth.JWKSEndpoints) > 0 {
		jwks, err := auth.NewJWKSClient(&auth.JWKSConfig{
			EnableVerification: cfg.Auth.EnableVerification,
			Endpoints:          cfg.Auth.JWKSEndpoints,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize JWKS verification: %w", err)
		}
		verifier = jwks
	}
	cookieSettings := auth.DeriveCookieSettings(cfg.BaseURL, cfg.Auth.CookieDomain)
	sessionManager := auth.NewSessionManager(cfg.Auth.Secret, cfg.Auth.TokenTTL(), cookieSettings)
	authService := auth.NewAuthService(userRepo, tokenService, verifier, sessionManager, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	// Services
	financeService := services.NewFinanceService(txRepo, invoiceRepo, payrollRepo, employeeRepo, notifRepo, logger)
	hrService := services.NewHRService(employeeRepo, logger)
	crmService := services.NewCRMService(leadRepo, customerRepo, gateway, logger)
	salesService := services.NewSalesService(dealRepo, leadRepo, customerRepo, artifactRepo, gateway, logger)
	marketingService := services.NewMarketingService(artifactRepo, gateway, logger)
	operationsService := services.NewOperationsService(taskRepo, notifRepo, gateway, logger)
	supportService := services.NewSupportService(ticketRepo, gateway, logger)
	workflowService := services.NewWorkflowService(workflowRepo, artifactRepo, notifRepo, gateway, logger)

	limiter := middleware.NewRateLimiter(redisClient, logger)
	limits := middleware.NewRouteLimits(limiter, cfg.RateLimit.PerMinute, cfg.RateLimit.AIPerMinute)

	mux := http.NewServeMux()

	healthStores := map[string]handlers.Pinger{
		"postgres": handlers.PingerFunc(db.Ping),
		"redis": handlers.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}
	handlers.NewHealthHandler(cfg, healthStores, gateway, logger).RegisterRoutes(mux)

	handlers.NewAuthHandler(authService, sessionManager, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewFinanceHandler(financeService, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewHRHandler(hrService, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewCRMHandler(crmService, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewSalesHandler(salesService, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewMarketingHandler(marketingService, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewOperationsHandler(operationsService, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewSupportHandler(supportService, logger).RegisterRoutes(mux, authMiddleware, limits)
	handlers.NewWorkflowHandler(workflowService, logger).RegisterRoutes(mux, authMiddleware, limits)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("smartbiz-engine", cfg.Version, logger)
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
		tools.RegisterSnapshotTool(mcpServer.MCP(), financeService)
		tools.RegisterForecastTool(mcpServer.MCP(), salesService)
		tools.RegisterLeadTools(mcpServer.MCP(), crmService)
		tools.RegisterContentTool(mcpServer.MCP(), marketingService)

		mcpAuth := mcpauth.NewMiddleware(authService, logger)
		mux.Handle("/mcp", mcpAuth.RequireAuth(
			middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer())))
		logger.Info("MCP tool surface enabled", zap.String("path", "/mcp"))
	}

	handler := middleware.RequestLogger(logger)(middleware.Recover(logger)(mux))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting smartbiz-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// applyMigrations brings the schema current at boot so a fresh deployment
// needs no separate migration step. smartbizctl migrate covers running
// them without starting the server.
func applyMigrations(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	dbCfg := cfg.Database
	dbCfg.Host = config.ResolveHostForDocker(dbCfg.Host)

	sqlDB, err := sql.Open("pgx", dbCfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database for migrations: %w", err)
	}

	return database.RunMigrations(sqlDB, "migrations", logger)
}
