package model

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "PENDING"
	ConnectionStatusAccepted ConnectionStatus = "ACCEPTED"
	ConnectionStatusRejected ConnectionStatus = "REJECTED"
)

// ConnectionAcceptedMessage seeds the chat of a freshly accepted connection.
const ConnectionAcceptedMessage = "Request accepted! You can now begin to chat."

// Valid reports whether s is a known connection status.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionStatusPending, ConnectionStatusAccepted, ConnectionStatusRejected:
		return true
	}
	return false
}

// Connection represents a student's follow request to a tutor
type Connection struct {
	ID        uuid.UUID        `json:"id"`
	StudentID uuid.UUID        `json:"studentId"`
	TutorID   uuid.UUID        `json:"tutorId"`
	Status    ConnectionStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	Student *AccountSummary `json:"student,omitempty"`
	Tutor   *AccountSummary `json:"tutor,omitempty"`
}

// IsPending checks if the connection awaits a decision
func (c *Connection) IsPending() bool {
	return c.Status == ConnectionStatusPending
}

// IsAccepted checks if the connection was accepted
func (c *Connection) IsAccepted() bool {
	return c.Status == ConnectionStatusAccepted
}
