package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message surfaced to one user on the dashboard.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification kinds.
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationAlert   = "alert"
)
