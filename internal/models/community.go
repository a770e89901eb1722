package models

import (
	"fmt"
	"strings"
	"time"
)

// Announcement is broadcast by an admin to a block; residents only read it.
type Announcement struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	Block       string    `json:"block"`
	ScheduledAt time.Time `json:"scheduledAt"`
	MediaURL    string    `json:"mediaUrl,omitempty"`
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const IssueOpen = "open"

// Issue is a maintenance problem reported by a resident.
type Issue struct {
	ID          string    `json:"id"`
	ResidentID  string    `json:"residentId"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Emergency priorities accepted on reports.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ParsePriority accepts the English levels and the colour codes shown on the report form.
func ParsePriority(label string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case PriorityLow, "yeşil kod", "yesil kod":
		return PriorityLow, nil
	case PriorityMedium, "sarı kod", "sari kod":
		return PriorityMedium, nil
	case PriorityHigh, "kırmızı kod", "kirmizi kod":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("unknown priority %q", label)
}

// EmergencyReport is an urgent resident report routed to admins and security.
type EmergencyReport struct {
	ID          string    `json:"id"`
	ResidentID  string    `json:"residentId"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Visitor is a pre-registered guest identified by the QR code they present at the gate.
type Visitor struct {
	ID           string     `json:"id"`
	QRCode       string     `json:"qrCode"`
	VisitorName  string     `json:"visitorName"`
	ResidentID   string     `json:"residentId,omitempty"`
	Purpose      string     `json:"purpose,omitempty"`
	RegisteredAt time.Time  `json:"registeredAt"`
	EnteredAt    *time.Time `json:"enteredAt,omitempty"`
}

// Notification is a message addressed to one resident.
type Notification struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"residentId"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}
