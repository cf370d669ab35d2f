package models

import "time"

// Action is the stable vocabulary of audit events.
type Action string

const (
	ActionSetupAdmin      Action = "SETUP_ADMIN"
	ActionLoginFailed     Action = "LOGIN_FAILED"
	ActionLoginSuccess    Action = "LOGIN_SUCCESS"
	ActionLogout          Action = "LOGOUT"
	ActionAccountLocked   Action = "ACCOUNT_LOCKED"
	ActionAccountUnlocked Action = "ACCOUNT_UNLOCKED"
	ActionUserCreated     Action = "USER_CREATED"
	ActionUserUpdated     Action = "USER_UPDATED"
	ActionPasswordReset   Action = "PASSWORD_RESET"
)

// AuditEntry is an immutable record of a security-relevant event. Username
// is the actor label at the time of the event.
type AuditEntry struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	UserID    *int64    `json:"userId"`
	Username  string    `json:"username"`
	Details   string    `json:"details"`
	IPAddress *string   `json:"ipAddress"`
}
