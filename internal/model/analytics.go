package model

import (
	"time"

	"github.com/google/uuid"
)

type EngagementStatus string

const (
	EngagementActive   EngagementStatus = "ACTIVE"
	EngagementInactive EngagementStatus = "INACTIVE"
)

// ActiveWindow is how recent the last session must be for ACTIVE.
const ActiveWindow = 30 * 24 * time.Hour

// StudentEngagement aggregates a tutor's history with one student.
type StudentEngagement struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Image           string           `json:"image"`
	Institution     string           `json:"institution"`
	Major           string           `json:"major"`
	TotalSessions   int              `json:"totalSessions"`
	LastSessionDate time.Time        `json:"lastSessionDate"`
	TotalSpent      int64            `json:"totalSpent"`
	Status          EngagementStatus `json:"status"`
}

// Dashboard is the profile page payload. Sections are filled depending on
// the role of the account. A section the role owns is never nil, so it is
// encoded as [] when empty; sections of other roles stay nil and are omitted.
type Dashboard struct {
	*Account

	UpcomingAsStudent []*Booking `json:"bookingsAsStudent,omitzero"`
	UpcomingAsTutor   []*Booking `json:"bookingsAsTutor,omitzero"`
	PendingRequests   *int       `json:"pendingRequests,omitempty"`
}
