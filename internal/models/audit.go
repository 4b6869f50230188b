package models

import "time"

const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// AuditEntry represents one audit log row.
type AuditEntry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       string    `json:"user_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	Action       string    `json:"action"`        // create, update, delete, status, import, alert
	ResourceType string    `json:"resource_type"` // depot, firearm, magazine, ...
	ResourceID   string    `json:"resource_id,omitempty"`
	Status       string    `json:"status"` // success, failure
	Details      string    `json:"details,omitempty"`
}
