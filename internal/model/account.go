package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTutor   Role = "TUTOR"
	RoleBoth    Role = "BOTH"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleBoth:
		return true
	}
	return false
}

// Teaches reports whether the role may act as a tutor.
func (r Role) Teaches() bool {
	return r == RoleTutor || r == RoleBoth
}

type Account struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Image          string    `json:"image"`
	Role           Role      `json:"role"`
	Institution    string    `json:"institution"`
	Major          string    `json:"major"`
	Bio            string    `json:"bio"`
	HourlyRate     float64   `json:"hourlyRate"`
	Subjects       string    `json:"subjects"` // comma-joined
	Rating         float64   `json:"rating"`
	TotalReviews   int       `json:"totalReviews"`
	TelegramChatID *int64    `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Summary returns the public fields shown to other accounts.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Name:        a.Name,
		Image:       a.Image,
		Institution: a.Institution,
		Major:       a.Major,
	}
}

// AccountSummary is the public profile embedded in bookings, connections
// and conversations.
type AccountSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Institution string    `json:"institution,omitempty"`
	Major       string    `json:"major,omitempty"`
	Email       string    `json:"email,omitempty"`
}

// ProfileUpdate carries a partial profile edit; nil fields stay untouched.
type ProfileUpdate struct {
	Name           *string
	Institution    *string
	Major          *string
	Bio            *string
	HourlyRate     *float64
	Subjects       *string
	TelegramChatID *int64
}

// TutorApplication promotes an account to the tutor role.
type TutorApplication struct {
	Major      string
	Subjects   []string
	HourlyRate float64
}

// TutorListing is a tutor row in the explore view. ConnectionStatus is
// set only when the viewer is authenticated and has a connection.
type TutorListing struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Image            string            `json:"image"`
	Institution      string            `json:"institution"`
	Major            string            `json:"major"`
	Bio              string            `json:"bio"`
	HourlyRate       float64           `json:"hourlyRate"`
	Subjects         string            `json:"subjects"`
	Rating           float64           `json:"rating"`
	TotalReviews     int               `json:"totalReviews"`
	ConnectionStatus *ConnectionStatus `json:"connectionStatus"`
}

// Actor is the authenticated account making the current request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.ID != uuid.Nil
}
