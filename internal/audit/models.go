package audit

import "time"

// Action names a security-relevant event.
type Action string

const (
	ActionLoginSucceeded         Action = "login_succeeded"
	ActionLoginFailed            Action = "login_failed"
	ActionTokenRefreshed         Action = "token_refreshed"
	ActionLogout                 Action = "logout"
	ActionUserCreated            Action = "user_created"
	ActionOrganizationCreated    Action = "organization_created"
	ActionOrganizationRolledBack Action = "organization_rolled_back"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Schema    string    `json:"schema,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Device    string    `json:"device,omitempty"`
}
