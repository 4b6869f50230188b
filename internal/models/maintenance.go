package models

import "time"

const (
	MaintenanceScheduled = "scheduled"
	MaintenanceCompleted = "completed"
)

type MaintenanceLog struct {
	ID          string     `json:"id"`
	FirearmID   string     `json:"firearm_id"`
	Type        string     `json:"type"` // inspection, cleaning, repair, replacement
	Description string     `json:"description"`
	PerformedBy string     `json:"performed_by,omitempty"`
	PerformedAt time.Time  `json:"performed_at"`
	NextDueAt   *time.Time `json:"next_due_at,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
