// seed inserts development identities for local testing: go run ./cmd/seed.
// Idempotent: identities whose email already exists are skipped. Requires DATABASE_URL;
// with MASTER_KEY set it also bootstraps the master account.
package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	adminservice "github.com/Lorenzzoczn/Aumigo/internal/admin/service"
	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/config"
	"github.com/Lorenzzoczn/Aumigo/internal/db"
	"github.com/Lorenzzoczn/Aumigo/internal/document"
	identityrepo "github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	identityservice "github.com/Lorenzzoczn/Aumigo/internal/identity/service"
	"github.com/Lorenzzoczn/Aumigo/internal/logger"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

const (
	devPassword  = "password123"
	masterEmail  = "master@aumigo.dev"
	federatedSub = "google-oauth2|dev-0001"
)

type seedAccount struct {
	name, email, accountType, seed, city, state, description string
}

// Seeds are the document bodies; check digits are computed at run time.
var seedAccounts = []seedAccount{
	{"Ana Souza", "ana@aumigo.dev", "person", "529982247", "São Paulo", "SP", ""},
	{"Bruno Lima", "bruno@aumigo.dev", "person", "134241716", "Curitiba", "PR", ""},
	{"Patas Unidas", "patas@aumigo.dev", "organization", "112223330001", "Recife", "PE", "Abrigo de cães e gatos resgatados."},
	{"Lar dos Bichos", "lar@aumigo.dev", "organization", "114447770001", "Belo Horizonte", "MG", "Feiras de adoção aos sábados."},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	log, err := logger.New(cfg.LogLevel, false)
	if err != nil {
		zap.NewExample().Fatal("logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	identities := identityrepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)
	signer, pub, err := security.GenerateKeyPair()
	if err != nil {
		log.Fatal("key pair", zap.Error(err))
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, time.Minute)
	hasher := security.NewHasher(cfg.BcryptCost)
	auditLogger := audit.NewLogger(audits, func(context.Context) string { return "seed" }, log)
	accounts := identityservice.NewAccountService(identities, hasher, tokens, auditLogger, log)

	for _, a := range seedAccounts {
		if err := seedLocal(ctx, identities, accounts, a); err != nil {
			log.Fatal("seed identity", zap.String("email", a.email), zap.Error(err))
		}
	}

	// A federated identity without a profile, to exercise CompleteProfile.
	if _, err := accounts.FederatedLogin(ctx, identityservice.FederatedProfile{
		Subject: federatedSub,
		Email:   "carla@aumigo.dev",
		Name:    "Carla Menezes",
	}); err != nil {
		log.Fatal("seed federated identity", zap.Error(err))
	}

	if cfg.MasterKey != "" {
		admin := adminservice.NewAdminService(adminservice.Config{
			Store:     identities,
			Audits:    audits,
			Audit:     auditLogger,
			Hasher:    hasher,
			Tokens:    tokens,
			MasterKey: cfg.MasterKey,
			Log:       log,
		})
		res, err := admin.Bootstrap(ctx, masterEmail, devPassword, cfg.MasterKey)
		switch {
		case err == nil:
			log.Info("master bootstrapped", zap.String("email", masterEmail), zap.Bool("created", res.Created))
		case errors.Is(err, adminservice.ErrBootstrapCompleted), errors.Is(err, adminservice.ErrInvalidCredentials):
			log.Info("master already present; skipping bootstrap")
		default:
			log.Fatal("bootstrap master", zap.Error(err))
		}
	}

	log.Info("seed complete", zap.Int("identities", len(seedAccounts)+1))
}

func seedLocal(ctx context.Context, identities *identityrepo.PostgresRepository, accounts *identityservice.AccountService, a seedAccount) error {
	existing, err := identities.GetByEmail(ctx, a.email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	complete := document.CompleteIndividual
	if a.accountType == "organization" {
		complete = document.CompleteOrganization
	}
	doc, err := complete(a.seed)
	if err != nil {
		return err
	}
	_, err = accounts.Register(ctx, identityservice.RegisterInput{
		Name:        a.name,
		Email:       a.email,
		Password:    devPassword,
		AccountType: a.accountType,
		Document:    doc,
		City:        a.city,
		State:       a.state,
		Description: a.description,
	})
	return err
}
