package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/document"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

// Sentinel errors for the account service; the handler maps them to gRPC codes.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyRegistered  = errors.New("email or document already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrDocumentImmutable  = errors.New("document cannot be changed once set")
)

const (
	minNameLength      = 2
	minPasswordLength  = 6
	maxDescriptionSize = 500
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthResult is returned by every operation that hands out a credential.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *domain.Identity
	// NeedsProfile is true when the identity has no account type yet (first federated login).
	NeedsProfile bool
}

// RegisterInput is a self-service registration request.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	AccountType string
	Document    string
	Phone       string
	City        string
	State       string
	Description string
}

// FederatedProfile is the verified profile an external login provider returned.
type FederatedProfile struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// ProfileInput completes or updates the profile of an existing identity. Empty strings leave
// fields unchanged; a nil Description leaves the description unchanged.
type ProfileInput struct {
	Name        string
	Email       string
	AccountType string
	Document    string
	Phone       string
	City        string
	State       string
	Description *string
}

// IdentityStore is the minimal identity repository needed by the account service.
type IdentityStore interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByDocument(ctx context.Context, document string) (*domain.Identity, error)
	GetByFederatedID(ctx context.Context, federatedID string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	Update(ctx context.Context, i *domain.Identity) error
}

// TokenIssuer issues bearer credentials for an identity.
type TokenIssuer interface {
	Issue(identityID string) (token string, expiresAt time.Time, err error)
}

// AccountService implements registration, login and profile operations for end users.
type AccountService struct {
	store  IdentityStore
	hasher *security.Hasher
	tokens TokenIssuer
	audit  audit.AuditLogger
	log    *zap.Logger
	now    func() time.Time
}

// NewAccountService returns an AccountService with the given dependencies. auditLogger and log may be nil.
func NewAccountService(store IdentityStore, hasher *security.Hasher, tokens TokenIssuer, auditLogger audit.AuditLogger, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		audit:  auditLogger,
		log:    log,
		now:    time.Now,
	}
}

// Register creates a Standard, active identity with a local password and returns a credential for it.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, invalid("name must be at least %d characters", minNameLength)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}
	accountType, err := parseHolderType(in.AccountType)
	if err != nil {
		return nil, err
	}
	doc, err := validateDocument(accountType, in.Document)
	if err != nil {
		return nil, err
	}
	phone, city, state := strings.TrimSpace(in.Phone), strings.TrimSpace(in.City), strings.TrimSpace(in.State)
	if phone == "" {
		return nil, invalid("phone is required")
	}
	if city == "" || state == "" {
		return nil, invalid("city and state are required")
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionSize {
		return nil, invalid("description must be at most %d characters", maxDescriptionSize)
	}

	if existing, err := s.store.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyRegistered
	}
	if existing, err := s.store.GetByDocument(ctx, doc); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	identity := &domain.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		Role:         domain.RoleStandard,
		AccountType:  accountType,
		Document:     doc,
		Phone:        phone,
		City:         city,
		State:        state,
		Description:  strings.TrimSpace(in.Description),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	identity.Normalize()
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.store.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	s.logEvent(ctx, audit.Event{ActorID: identity.ID, Action: audit.ActionRegistered, Resource: audit.ResourceIdentity, TargetID: identity.ID})
	return s.issue(identity)
}

// Login authenticates an active identity with email and password. Failures are reported as
// ErrInvalidCredentials without saying which part was wrong. Login never changes roles.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	identity, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.Active {
		s.loginFailed(ctx, "")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(identity.PasswordHash, []byte(password)); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			s.log.Warn("login: corrupt password hash", zap.String("identity_id", identity.ID), zap.Error(err))
		}
		s.loginFailed(ctx, identity.ID)
		return nil, ErrInvalidCredentials
	}
	return s.issue(identity)
}

// FederatedLogin signs in the identity linked to p.Subject. When none is linked, it links the
// identity holding the same email, or creates a Standard identity with no local password.
func (s *AccountService) FederatedLogin(ctx context.Context, p FederatedProfile) (*AuthResult, error) {
	subject := strings.TrimSpace(p.Subject)
	email := normalizeEmail(p.Email)
	if subject == "" {
		return nil, invalid("federated subject is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	identity, err := s.store.GetByFederatedID(ctx, subject)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		identity, err = s.linkOrCreate(ctx, subject, email, p)
		if err != nil {
			return nil, err
		}
	}
	if !identity.Active {
		return nil, ErrInvalidCredentials
	}
	return s.issue(identity)
}

func (s *AccountService) linkOrCreate(ctx context.Context, subject, email string, p FederatedProfile) (*domain.Identity, error) {
	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.FederatedID != "" {
			// Linked to a different external account.
			return nil, ErrAlreadyRegistered
		}
		existing.FederatedID = subject
		if existing.AvatarURL == "" {
			existing.AvatarURL = p.AvatarURL
		}
		if err := s.store.Update(ctx, existing); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrAlreadyRegistered
			}
			return nil, err
		}
		return existing, nil
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	now := s.now().UTC()
	identity := &domain.Identity{
		ID:          uuid.New().String(),
		Email:       email,
		Name:        name,
		FederatedID: subject,
		AvatarURL:   p.AvatarURL,
		Role:        domain.RoleStandard,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	identity.Normalize()
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.store.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	s.logEvent(ctx, audit.Event{ActorID: identity.ID, Action: audit.ActionRegistered, Resource: audit.ResourceIdentity, TargetID: identity.ID, Metadata: `{"federated":true}`})
	return identity, nil
}

// CompleteProfile updates the profile of identityID. Only the fields set in `in` change.
// The account type is required when a document is attached for the first time; once a
// document is attached, it and the account type are fixed.
func (s *AccountService) CompleteProfile(ctx context.Context, identityID string, in ProfileInput) (*domain.Identity, error) {
	identity, err := s.Me(ctx, identityID)
	if err != nil {
		return nil, err
	}
	updated := identity.Clone()

	if v := strings.TrimSpace(in.Name); v != "" {
		if utf8.RuneCountInString(v) < minNameLength {
			return nil, invalid("name must be at least %d characters", minNameLength)
		}
		updated.Name = v
	}
	if strings.TrimSpace(in.Email) != "" {
		email := normalizeEmail(in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != updated.Email {
			holder, err := s.store.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if holder != nil && holder.ID != updated.ID {
				return nil, ErrAlreadyRegistered
			}
			updated.Email = email
		}
	}

	accountType := updated.AccountType
	if strings.TrimSpace(in.AccountType) != "" {
		accountType, err = parseHolderType(in.AccountType)
		if err != nil {
			return nil, err
		}
		if updated.Document != "" && accountType != updated.AccountType {
			return nil, ErrDocumentImmutable
		}
	}

	if strings.TrimSpace(in.Document) != "" {
		if accountType == "" {
			return nil, invalid("account type is required to attach a document")
		}
		doc, err := validateDocument(accountType, in.Document)
		if err != nil {
			return nil, err
		}
		if updated.Document != "" && updated.Document != doc {
			return nil, ErrDocumentImmutable
		}
		holder, err := s.store.GetByDocument(ctx, doc)
		if err != nil {
			return nil, err
		}
		if holder != nil && holder.ID != updated.ID {
			return nil, ErrAlreadyRegistered
		}
		updated.Document = doc
	}
	updated.AccountType = accountType

	if v := strings.TrimSpace(in.Phone); v != "" {
		updated.Phone = v
	}
	if v := strings.TrimSpace(in.City); v != "" {
		updated.City = v
	}
	if v := strings.TrimSpace(in.State); v != "" {
		updated.State = v
	}
	if in.Description != nil {
		if utf8.RuneCountInString(*in.Description) > maxDescriptionSize {
			return nil, invalid("description must be at most %d characters", maxDescriptionSize)
		}
		updated.Description = strings.TrimSpace(*in.Description)
	}
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	updated.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	return updated, nil
}

// PublicProfile returns the anonymous profile of an active identity. Inactive and unknown
// identities are both reported as ErrIdentityNotFound.
func (s *AccountService) PublicProfile(ctx context.Context, identityID string) (domain.PublicProfile, error) {
	if strings.TrimSpace(identityID) == "" {
		return domain.PublicProfile{}, ErrIdentityNotFound
	}
	identity, err := s.store.GetByID(ctx, identityID)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	if identity == nil || !identity.Active {
		return domain.PublicProfile{}, ErrIdentityNotFound
	}
	return identity.Profile(), nil
}

// Me returns the identity with the given id or ErrIdentityNotFound.
func (s *AccountService) Me(ctx context.Context, identityID string) (*domain.Identity, error) {
	identity, err := s.store.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrIdentityNotFound
	}
	return identity, nil
}

func (s *AccountService) issue(identity *domain.Identity) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{
		Token:        token,
		ExpiresAt:    exp,
		Identity:     identity,
		NeedsProfile: identity.AccountType == "",
	}, nil
}

func (s *AccountService) loginFailed(ctx context.Context, identityID string) {
	s.logEvent(ctx, audit.Event{
		ActorID:  identityID,
		Action:   audit.ActionLoginFailure,
		Resource: audit.ResourceIdentity,
		TargetID: identityID,
		Outcome:  auditdomain.OutcomeDenied,
	})
}

func (s *AccountService) logEvent(ctx context.Context, e audit.Event) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, e)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	if !emailPattern.MatchString(email) {
		return invalid("invalid email format")
	}
	return nil
}

// parseHolderType accepts the account types an end user may choose.
func parseHolderType(s string) (domain.AccountType, error) {
	t, err := domain.ParseAccountType(s)
	if err != nil || t == domain.AccountTypeAdmin {
		return "", invalid("account type must be person or organization")
	}
	return t, nil
}

// validateDocument checks raw against the kind required by t and returns its digits.
func validateDocument(t domain.AccountType, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", invalid("document is required")
	}
	kind := t.DocumentKind()
	if err := document.Validate(kind, raw); err != nil {
		return "", fmt.Errorf("%w: invalid %s: %w", ErrInvalidInput, kind, err)
	}
	return document.Digits(raw), nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
