package main

import (
	"context"
	"crypto"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"

	adminservice "github.com/Lorenzzoczn/Aumigo/internal/admin/service"
	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/config"
	"github.com/Lorenzzoczn/Aumigo/internal/db"
	apphealth "github.com/Lorenzzoczn/Aumigo/internal/health"
	identityrepo "github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	identityservice "github.com/Lorenzzoczn/Aumigo/internal/identity/service"
	"github.com/Lorenzzoczn/Aumigo/internal/logger"
	"github.com/Lorenzzoczn/Aumigo/internal/policy/engine"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
	"github.com/Lorenzzoczn/Aumigo/internal/server"
	"github.com/Lorenzzoczn/Aumigo/internal/server/interceptors"
	"github.com/Lorenzzoczn/Aumigo/internal/telemetry"
	otelsetup "github.com/Lorenzzoczn/Aumigo/internal/telemetry/otel"
	"github.com/Lorenzzoczn/Aumigo/internal/telemetry/producer"
)

const healthInterval = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		zap.NewExample().Fatal("logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, cfg.OTelServiceName, cfg.OTLPInsecure, log)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	identities, audits, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var sinks []telemetry.EventEmitter
	sinks = append(sinks, otelsetup.NewEventEmitter(providers.LoggerProvider))
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuditKafkaTopic); kp != nil {
		log.Info("audit stream enabled", zap.Strings("brokers", cfg.KafkaBrokersList()), zap.String("topic", cfg.AuditKafkaTopic))
		sinks = append(sinks, kp)
		defer func() { _ = kp.Close() }()
	}
	auditStore := telemetry.NewMirrorRepository(audits, log, sinks...)
	auditLogger := audit.NewLogger(auditStore, interceptors.ClientIP, log)

	tokens, err := tokenProvider(cfg, log)
	if err != nil {
		return err
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	policy, err := engine.NewOPAEvaluator(ctx)
	if err != nil {
		return err
	}

	metrics, err := interceptors.NewMetrics(providers.MeterProvider)
	if err != nil {
		return err
	}

	if cfg.MasterKey == "" {
		log.Info("MASTER_KEY not set; master bootstrap disabled")
	}

	healthSrv := health.NewServer()
	checker := apphealth.NewChecker(healthSrv, identities, policy, server.ServiceNames(), log)
	_ = checker.Check(ctx)
	go checker.Run(ctx, healthInterval)

	s := server.NewServer(server.Deps{
		Accounts: identityservice.NewAccountService(identities, hasher, tokens, auditLogger, log),
		Admin: adminservice.NewAdminService(adminservice.Config{
			Store:     identities,
			Audits:    auditStore,
			Policy:    policy,
			Audit:     auditLogger,
			Hasher:    hasher,
			Tokens:    tokens,
			MasterKey: cfg.MasterKey,
			Log:       log,
		}),
		Authorizer:  authz.NewAuthorizer(tokens, identities),
		AuditLogger: auditLogger,
		Metrics:     metrics,
		Health:      healthSrv,
		Log:         log,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	defer lis.Close()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr), zap.String("store", cfg.Store))
		serveErr <- s.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gRPC server...")
	healthSrv.Shutdown()
	s.GracefulStop()
	// Give in-flight audit mirrors time to reach their sinks before closing them.
	time.Sleep(telemetry.ShutdownDrainDuration)
	log.Info("gRPC server stopped")
	return nil
}

// openStore returns the identity and audit repositories for cfg.Store and a close function.
func openStore(cfg *config.Config, log *zap.Logger) (identityrepo.Repository, auditrepo.Repository, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return identityrepo.NewMemoryRepository(), auditrepo.NewMemoryRepository(), func() {}, nil
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := conn.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}
	return identityrepo.NewPostgresRepository(conn), auditrepo.NewPostgresRepository(conn), closeFn, nil
}

// tokenProvider loads the configured key pair. Outside production a missing pair is replaced
// by an ephemeral key, so tokens do not survive a restart.
func tokenProvider(cfg *config.Config, log *zap.Logger) (*security.TokenProvider, error) {
	var signer crypto.Signer
	var pub crypto.PublicKey
	var err error
	switch {
	case cfg.JWTPrivateKey != "" && cfg.JWTPublicKey != "":
		if signer, err = security.ParsePrivateKey(cfg.JWTPrivateKey); err != nil {
			return nil, err
		}
		if pub, err = security.ParsePublicKey(cfg.JWTPublicKey); err != nil {
			return nil, err
		}
	case cfg.IsProduction():
		return nil, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set when APP_ENV=production")
	default:
		log.Warn("JWT key pair not configured; generating an ephemeral key")
		if signer, pub, err = security.GenerateKeyPair(); err != nil {
			return nil, err
		}
	}
	return security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL()), nil
}
