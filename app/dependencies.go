package app

import (
	"context"
	"fmt"

	"github.com/dgr198213-ui/qodeia-arch/config"
	"github.com/dgr198213-ui/qodeia-arch/crypto"
	"github.com/dgr198213-ui/qodeia-arch/handlers"
	"github.com/dgr198213-ui/qodeia-arch/middleware"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"github.com/dgr198213-ui/qodeia-arch/repositories/postgres"
	"github.com/dgr198213-ui/qodeia-arch/services"
	"github.com/dgr198213-ui/qodeia-arch/services/amag"
	"github.com/dgr198213-ui/qodeia-arch/services/audit"
	"github.com/dgr198213-ui/qodeia-arch/services/credentials"
	"github.com/dgr198213-ui/qodeia-arch/services/governance"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Credentials repositories.CredentialRepository
	AuditLogs   repositories.AuditRepository
	Rules       repositories.RuleRepository
	TxManager   repositories.TransactionManager

	// Services
	Engine            *amag.Engine
	Recorder          *audit.Recorder
	Guard             *governance.Guard
	CredentialService *credentials.Service

	// HTTP layer
	HealthHandler     *handlers.HealthHandler
	CredentialHandler *handlers.CredentialHandler
	AuditHandler      *handlers.AuditHandler
	RuleHandler       *handlers.RuleHandler
	StatusHandler     *handlers.StatusHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection(s) and creates the schema.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Credentials = repos.Credentials
	d.AuditLogs = repos.AuditLogs
	d.Rules = repos.Rules
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// SeedRules inserts the built-in rule definitions when the catalog is empty.
// The seed runs in one transaction so a half-written catalog never survives
// a failed startup.
func (d *Dependencies) SeedRules(ctx context.Context) error {
	err := services.WithTransaction(ctx, d.TxManager, func(txCtx context.Context) error {
		return d.Rules.Seed(txCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to seed rule catalog: %w", err)
	}
	return nil
}

// initServices wires the policy engine, audit recorder, governance guard
// and the credential service.
func (d *Dependencies) initServices(cfg *config.Config) error {
	cipher, err := d.newCipher(cfg)
	if err != nil {
		return err
	}

	d.Engine = amag.NewEngine(d.Logger)
	d.Recorder = audit.NewRecorder(d.AuditLogs, d.Logger)
	d.Guard = governance.NewGuard(d.Engine, d.Recorder, d.Logger)
	d.CredentialService = credentials.NewService(d.Credentials, cipher, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// newCipher builds the envelope cipher from the configured key. In
// development an absent key falls back to an ephemeral one so the API stays
// usable; secrets encrypted that way do not survive a restart.
func (d *Dependencies) newCipher(cfg *config.Config) (*crypto.SecretCipher, error) {
	if cfg.Security.EncryptionKey != "" {
		cipher, err := crypto.NewSecretCipherFromHex(cfg.Security.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		return cipher, nil
	}

	if cfg.IsProduction() {
		return nil, fmt.Errorf("encryption key is required in production")
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	d.Logger.Warn("no encryption key configured, using ephemeral key; stored secrets will not survive a restart")
	return crypto.NewSecretCipher(key)
}

func (d *Dependencies) initHTTP(cfg *config.Config) {
	if auditDB := d.RepoFactory.GetAuditDB(); auditDB != nil {
		d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, auditDB.DB, d.Logger)
	} else {
		d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, nil, d.Logger)
	}

	d.CredentialHandler = handlers.NewCredentialHandler(d.CredentialService, d.Guard, d.Logger)
	d.AuditHandler = handlers.NewAuditHandler(d.AuditLogs, d.Guard, d.Logger)
	d.RuleHandler = handlers.NewRuleHandler(d.Rules, d.Guard, d.Logger)
	d.StatusHandler = handlers.NewStatusHandler(d.CredentialService, d.Guard, d.Logger)

	verifier := middleware.NewHMACVerifier(cfg.Security.JWTSecret)
	d.AuthMiddleware = middleware.NewAuthMiddleware(verifier, d.Logger)

	d.Logger.Info("http layer initialized")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
