// Package adminv1 defines the aumigo.admin.v1 AdminService used by elevated identities.
package adminv1

import (
	"time"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
)

type GetDashboardRequest struct{}

type GetDashboardResponse struct {
	TotalActive   int                   `json:"total_active"`
	ByRole        map[string]int        `json:"by_role"`
	ByAccountType map[string]int        `json:"by_account_type"`
	Recent        []*accountv1.Identity `json:"recent"`
}

// ListUsersRequest pages through active identities. Page starts at 1; zero values use defaults.
type ListUsersRequest struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type ListUsersResponse struct {
	Users []*accountv1.Identity `json:"users"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
	Total int                   `json:"total"`
	Pages int                   `json:"pages"`
}

type DeactivateUserRequest struct {
	UserID string `json:"user_id"`
}

type DeactivateUserResponse struct {
	User *accountv1.Identity `json:"user"`
}

type ChangeRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type ChangeRoleResponse struct {
	User *accountv1.Identity `json:"user"`
}

type ListAuditLogsRequest struct {
	ActorID string `json:"actor_id,omitempty"`
	Action  string `json:"action,omitempty"`
	Page    int    `json:"page,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type AuditLog struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	TargetID  string    `json:"target_id,omitempty"`
	Outcome   string    `json:"outcome"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListAuditLogsResponse struct {
	Logs []*AuditLog `json:"logs"`
}
