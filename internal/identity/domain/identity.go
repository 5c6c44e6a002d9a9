package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/Lorenzzoczn/Aumigo/internal/document"
)

var (
	ErrEmailRequired  = errors.New("email is required")
	ErrSecretRequired = errors.New("password is required unless a federated login is linked")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidType    = errors.New("invalid account type")
	ErrDocumentKind   = errors.New("document does not match account type")
)

// AccountType is the kind of account holder. It decides which document kind is required.
type AccountType string

const (
	AccountTypePerson       AccountType = "person"
	AccountTypeOrganization AccountType = "organization"
	AccountTypeAdmin        AccountType = "admin"
)

// ParseAccountType accepts the current names and the legacy ones ("pessoa", "ong").
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "pessoa":
		return AccountTypePerson, nil
	case "organization", "ong":
		return AccountTypeOrganization, nil
	case "admin":
		return AccountTypeAdmin, nil
	default:
		return "", ErrInvalidType
	}
}

// DocumentKind returns the taxpayer document kind required for t, or KindUnknown when none is.
func (t AccountType) DocumentKind() document.Kind {
	switch t {
	case AccountTypePerson:
		return document.KindIndividual
	case AccountTypeOrganization:
		return document.KindOrganization
	default:
		return document.KindUnknown
	}
}

// Identity is an account that can authenticate and hold a role.
type Identity struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // empty for federated-only identities
	FederatedID  string // external login subject; empty for local-only identities
	AvatarURL    string
	Role         Role
	AccountType  AccountType
	Document     string // digits only; immutable once set
	Phone        string
	City         string
	State        string
	Description  string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalize defaults an unset role to Standard and reduces the document to its digits.
// Call it before Validate when the fields come from user input.
func (i *Identity) Normalize() {
	if i.Role == RoleInvalid {
		i.Role = RoleStandard
	}
	if i.Document != "" {
		i.Document = document.Digits(i.Document)
	}
}

// Validate validates the identity for persistence without modifying it. Returns the first
// validation failure.
func (i *Identity) Validate() error {
	if strings.TrimSpace(i.Email) == "" {
		return ErrEmailRequired
	}
	if i.PasswordHash == "" && i.FederatedID == "" {
		return ErrSecretRequired
	}
	if !i.Role.Valid() {
		return ErrInvalidRole
	}
	if i.AccountType != "" {
		if _, err := ParseAccountType(string(i.AccountType)); err != nil {
			return err
		}
	}
	if i.Document != "" {
		kind := i.AccountType.DocumentKind()
		if kind == document.KindUnknown {
			return ErrDocumentKind
		}
		if err := document.Validate(kind, i.Document); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a copy of i; nil stays nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// PublicIdentity is the externally visible projection of an Identity.
type PublicIdentity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	AccountType string    `json:"account_type,omitempty"`
	Document    string    `json:"document,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Federated   bool      `json:"federated"`
	CreatedAt   time.Time `json:"created_at"`
}

// Public returns the projection safe to return to the identity itself and to administrators:
// no secret, the document as digits, and the federated subject reported only as a flag.
func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:          i.ID,
		Email:       i.Email,
		Name:        i.Name,
		Role:        i.Role.String(),
		AccountType: string(i.AccountType),
		Document:    i.Document,
		Phone:       i.Phone,
		City:        i.City,
		State:       i.State,
		Description: i.Description,
		AvatarURL:   i.AvatarURL,
		Federated:   i.FederatedID != "",
		CreatedAt:   i.CreatedAt,
	}
}

// PublicProfile is what anyone may see about an active identity.
type PublicProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AccountType string    `json:"account_type,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile returns the anonymous projection: no email, document, phone, role or secret.
func (i *Identity) Profile() PublicProfile {
	return PublicProfile{
		ID:          i.ID,
		Name:        i.Name,
		AccountType: string(i.AccountType),
		City:        i.City,
		State:       i.State,
		Description: i.Description,
		AvatarURL:   i.AvatarURL,
		CreatedAt:   i.CreatedAt,
	}
}
