// Package service implements the administrative operations: dashboard, identity listing,
// role changes, deactivation and the one-time master bootstrap.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/policy/engine"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrTargetNotFound     = errors.New("target identity not found")
	ErrPolicyUnavailable  = errors.New("role change policy unavailable")
	ErrBootstrapDisabled  = errors.New("master bootstrap is disabled")
	ErrInvalidMasterKey   = errors.New("invalid master key")
	ErrBootstrapCompleted = errors.New("master bootstrap already completed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 1_000_000
	recentCount     = 5

	masterName        = "Master Administrator"
	minPasswordLength = 6
)

// IdentityStore is the identity repository subset the admin service needs.
type IdentityStore interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, f repository.ListFilter) ([]*domain.Identity, error)
	Count(ctx context.Context, activeOnly bool) (int, error)
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
	CountByAccountType(ctx context.Context) (map[domain.AccountType]int, error)
	ExistsWithRole(ctx context.Context, role domain.Role) (bool, error)
}

// AuditReader lists audit entries.
type AuditReader interface {
	List(ctx context.Context, f auditrepo.ListFilter) ([]*auditdomain.AuditLog, error)
}

// TokenIssuer issues bearer credentials for an identity.
type TokenIssuer interface {
	Issue(identityID string) (token string, expiresAt time.Time, err error)
}

// Dashboard summarises the active identity population.
type Dashboard struct {
	TotalActive   int
	ByRole        map[domain.Role]int
	ByAccountType map[domain.AccountType]int
	Recent        []*domain.Identity
}

// IdentityPage is one page of active identities, newest first.
type IdentityPage struct {
	Identities []*domain.Identity
	Page       int
	Limit      int
	Total      int
	Pages      int
}

// BootstrapResult is returned by a successful master bootstrap.
type BootstrapResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *domain.Identity
	// Created is true when the bootstrap created the identity rather than promoting one.
	Created bool
}

// Config holds the admin service dependencies. Policy defaults to the in-process rule.
type Config struct {
	Store     IdentityStore
	Audits    AuditReader
	Policy    engine.Evaluator
	Audit     audit.AuditLogger
	Hasher    *security.Hasher
	Tokens    TokenIssuer
	MasterKey string
	Log       *zap.Logger
}

// AdminService implements administrative operations. Callers authorize the actor's tier
// before calling; the service applies the target-dependent rules.
type AdminService struct {
	store     IdentityStore
	audits    AuditReader
	policy    engine.Evaluator
	audit     audit.AuditLogger
	hasher    *security.Hasher
	tokens    TokenIssuer
	masterKey string
	log       *zap.Logger
	now       func() time.Time

	bootstrapMu sync.Mutex
}

// NewAdminService returns an AdminService from cfg.
func NewAdminService(cfg Config) *AdminService {
	s := &AdminService{
		store:     cfg.Store,
		audits:    cfg.Audits,
		policy:    cfg.Policy,
		audit:     cfg.Audit,
		hasher:    cfg.Hasher,
		tokens:    cfg.Tokens,
		masterKey: cfg.MasterKey,
		log:       cfg.Log,
		now:       time.Now,
	}
	if s.policy == nil {
		s.policy = engine.FallbackEvaluator{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// BootstrapEnabled reports whether a master key is configured.
func (s *AdminService) BootstrapEnabled() bool {
	return s.masterKey != ""
}

// Dashboard returns identity counts and the most recently created active identities.
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	total, err := s.store.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	byRole, err := s.store.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.store.CountByAccountType(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.List(ctx, repository.ListFilter{ActiveOnly: true, Limit: recentCount})
	if err != nil {
		return nil, err
	}
	return &Dashboard{TotalActive: total, ByRole: byRole, ByAccountType: byType, Recent: recent}, nil
}

// ListIdentities returns a page of active identities. page starts at 1; limit is clamped to 1..100
// and defaults to 20.
func (s *AdminService) ListIdentities(ctx context.Context, page, limit int) (*IdentityPage, error) {
	page, limit, offset, err := pageWindow(page, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, repository.ListFilter{ActiveOnly: true, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &IdentityPage{
		Identities: list,
		Page:       page,
		Limit:      limit,
		Total:      total,
		Pages:      (total + limit - 1) / limit,
	}, nil
}

// ChangeRole sets targetID's role to newRole when both authz.CanChangeRole and the role-change
// policy allow actor to. Both grants and denials are audited.
func (s *AdminService) ChangeRole(ctx context.Context, actor *domain.Identity, targetID string, newRole domain.Role) (*domain.Identity, error) {
	if actor == nil {
		return nil, authz.ErrInsufficientRole
	}
	target, err := s.store.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}
	if err := authz.CanChangeRole(actor, target, newRole); err != nil {
		s.logEvent(ctx, audit.Event{
			ActorID: actor.ID, Action: audit.ActionRoleChanged, Resource: audit.ResourceIdentity,
			TargetID: target.ID, Outcome: auditdomain.OutcomeDenied, Metadata: roleChangeMetadata(target.Role, newRole, nil),
		})
		return nil, err
	}
	decision, err := s.policy.EvaluateRoleChange(ctx, engine.RoleChangeInput{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		TargetID:   target.ID,
		TargetRole: target.Role,
		NewRole:    newRole,
	})
	if err != nil {
		s.log.Error("role change policy evaluation failed", zap.String("actor_id", actor.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPolicyUnavailable, err)
	}
	meta := roleChangeMetadata(target.Role, newRole, decision.Reasons)
	if !decision.Allow {
		s.logEvent(ctx, audit.Event{
			ActorID: actor.ID, Action: audit.ActionRoleChanged, Resource: audit.ResourceIdentity,
			TargetID: target.ID, Outcome: auditdomain.OutcomeDenied, Metadata: meta,
		})
		return nil, decision.Err()
	}
	if err := s.store.SetRole(ctx, target.ID, newRole); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}
	s.logEvent(ctx, audit.Event{
		ActorID: actor.ID, Action: audit.ActionRoleChanged, Resource: audit.ResourceIdentity,
		TargetID: target.ID, Metadata: meta,
	})
	s.log.Info("role changed",
		zap.String("actor_id", actor.ID),
		zap.String("target_id", target.ID),
		zap.Stringer("from", target.Role),
		zap.Stringer("to", newRole),
	)
	target.Role = newRole
	return target, nil
}

// Deactivate marks targetID inactive. Deactivating an already inactive identity succeeds.
func (s *AdminService) Deactivate(ctx context.Context, actor *domain.Identity, targetID string) (*domain.Identity, error) {
	target, err := s.store.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}
	if err := authz.CanDeactivate(actor, target); err != nil {
		actorID := ""
		if actor != nil {
			actorID = actor.ID
		}
		s.logEvent(ctx, audit.Event{
			ActorID: actorID, Action: audit.ActionIdentityDeactivated, Resource: audit.ResourceIdentity,
			TargetID: target.ID, Outcome: auditdomain.OutcomeDenied,
		})
		return nil, err
	}
	if !target.Active {
		return target, nil
	}
	if err := s.store.SetActive(ctx, target.ID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}
	s.logEvent(ctx, audit.Event{
		ActorID: actor.ID, Action: audit.ActionIdentityDeactivated, Resource: audit.ResourceIdentity, TargetID: target.ID,
	})
	target.Active = false
	return target, nil
}

// ListAuditLogs returns audit entries newest first. limit is clamped like ListIdentities.
func (s *AdminService) ListAuditLogs(ctx context.Context, actorID, action string, page, limit int) ([]*auditdomain.AuditLog, error) {
	if s.audits == nil {
		return nil, nil
	}
	_, limit, offset, err := pageWindow(page, limit)
	if err != nil {
		return nil, err
	}
	return s.audits.List(ctx, auditrepo.ListFilter{ActorID: actorID, Action: action, Limit: limit, Offset: offset})
}

// pageWindow clamps page and limit and returns the row offset of the page. Pages past MaxPage
// are ErrInvalidInput.
func pageWindow(page, limit int) (int, int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page > MaxPage {
		return 0, 0, 0, fmt.Errorf("%w: page must be at most %d", ErrInvalidInput, MaxPage)
	}
	return page, limit, (page - 1) * limit, nil
}

// Bootstrap creates or promotes the first SuperElevated identity. It requires the configured
// master key and is refused once any SuperElevated identity exists. Every attempt is audited.
func (s *AdminService) Bootstrap(ctx context.Context, email, password, masterKey string) (*BootstrapResult, error) {
	s.bootstrapMu.Lock()
	defer s.bootstrapMu.Unlock()

	res, err := s.bootstrap(ctx, strings.ToLower(strings.TrimSpace(email)), password, masterKey)
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) {
			s.logEvent(ctx, audit.Event{
				Action: audit.ActionMasterBootstrapDenied, Resource: audit.ResourceIdentity,
				Outcome: auditdomain.OutcomeDenied, Metadata: reasonMetadata(err),
			})
			s.log.Warn("master bootstrap refused", zap.Error(err))
		}
		return nil, err
	}
	s.logEvent(ctx, audit.Event{
		ActorID: res.Identity.ID, Action: audit.ActionMasterBootstrap, Resource: audit.ResourceIdentity,
		TargetID: res.Identity.ID, Metadata: fmt.Sprintf(`{"created":%t}`, res.Created),
	})
	s.log.Info("master bootstrap completed", zap.String("identity_id", res.Identity.ID), zap.Bool("created", res.Created))
	return res, nil
}

func (s *AdminService) bootstrap(ctx context.Context, email, password, masterKey string) (*BootstrapResult, error) {
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if masterKey == "" {
		return nil, fmt.Errorf("%w: master key is required", ErrInvalidInput)
	}
	if !s.BootstrapEnabled() {
		return nil, ErrBootstrapDisabled
	}
	if !security.SecretEqual(masterKey, s.masterKey) {
		return nil, ErrInvalidMasterKey
	}
	done, err := s.store.ExistsWithRole(ctx, domain.RoleSuperElevated)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, ErrBootstrapCompleted
	}

	identity, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	created := identity == nil
	if created {
		identity, err = s.createMaster(ctx, email, password)
		if err != nil {
			return nil, err
		}
	} else {
		if !identity.Active {
			return nil, ErrInvalidCredentials
		}
		if err := s.hasher.Compare(identity.PasswordHash, []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		if err := s.store.SetRole(ctx, identity.ID, domain.RoleSuperElevated); err != nil {
			return nil, err
		}
		identity.Role = domain.RoleSuperElevated
	}
	token, exp, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &BootstrapResult{Token: token, ExpiresAt: exp, Identity: identity, Created: created}, nil
}

func (s *AdminService) createMaster(ctx context.Context, email, password string) (*domain.Identity, error) {
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	identity := &domain.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         masterName,
		PasswordHash: hashed,
		Role:         domain.RoleSuperElevated,
		AccountType:  domain.AccountTypeAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	identity.Normalize()
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.store.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *AdminService) logEvent(ctx context.Context, e audit.Event) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, e)
	}
}

func roleChangeMetadata(from, to domain.Role, reasons []string) string {
	b, err := json.Marshal(struct {
		From    string   `json:"from"`
		To      string   `json:"to"`
		Reasons []string `json:"reasons,omitempty"`
	}{from.String(), to.String(), reasons})
	if err != nil {
		return ""
	}
	return string(b)
}

func reasonMetadata(err error) string {
	reason := "error"
	switch {
	case errors.Is(err, ErrBootstrapDisabled):
		reason = "disabled"
	case errors.Is(err, ErrInvalidMasterKey):
		reason = "invalid_master_key"
	case errors.Is(err, ErrBootstrapCompleted):
		reason = "completed"
	case errors.Is(err, ErrInvalidCredentials):
		reason = "invalid_credentials"
	}
	return fmt.Sprintf(`{"reason":%q}`, reason)
}
