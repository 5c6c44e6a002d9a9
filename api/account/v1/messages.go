// Package accountv1 defines the aumigo.account.v1 AccountService: messages, the server
// interface and a client. Messages travel as JSON (see api/codec).
package accountv1

import "time"

// Identity is the public view of an account.
type Identity struct {
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
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type ValidateDocumentRequest struct {
	Document string `json:"document"`
	// Kind is "cpf" or "cnpj"; empty classifies by digit count.
	Kind string `json:"kind,omitempty"`
}

type ValidateDocumentResponse struct {
	Valid     bool   `json:"valid"`
	Kind      string `json:"kind"`
	Formatted string `json:"formatted,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AccountType string `json:"account_type"`
	Document    string `json:"document"`
	Phone       string `json:"phone"`
	City        string `json:"city"`
	State       string `json:"state"`
	Description string `json:"description,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MasterLoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	MasterKey string `json:"master_key"`
}

// AuthResponse carries a bearer token. NeedsProfile asks the client to call CompleteProfile.
type AuthResponse struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     *Identity `json:"identity"`
	NeedsProfile bool      `json:"needs_profile,omitempty"`
}

type MeRequest struct{}

type MeResponse struct {
	Identity *Identity `json:"identity"`
}

// CompleteProfileRequest updates the caller's profile. Empty fields are left unchanged; a
// null description is left unchanged while "" clears it.
type CompleteProfileRequest struct {
	Name        string  `json:"name,omitempty"`
	Email       string  `json:"email,omitempty"`
	AccountType string  `json:"account_type,omitempty"`
	Document    string  `json:"document,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CompleteProfileResponse struct {
	Identity *Identity `json:"identity"`
}

// PublicProfile is the view of an account anyone may see. It carries no contact data or document.
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

type GetPublicProfileRequest struct {
	ID string `json:"id"`
}

type GetPublicProfileResponse struct {
	Profile *PublicProfile `json:"profile"`
}
