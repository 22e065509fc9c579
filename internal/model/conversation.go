package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingThreadPlaceholder    = "Session Chat"
	ConnectionThreadPlaceholder = "Start a conversation"
	ConnectionContextLabel      = "General Chat"
)

// ThreadSummary is one inbox candidate as loaded from storage: the thread,
// both participants and its latest message, if any.
type ThreadSummary struct {
	Ref     ThreadRef
	Student AccountSummary
	Tutor   AccountSummary
	// Subject is the booking subject; empty for connection threads.
	Subject string
	// ActivityAt is used when the thread has no messages yet:
	// booking creation time or connection update time.
	ActivityAt time.Time
	Last       *Message
}

// Counterpart returns the participant that is not viewer.
func (t *ThreadSummary) Counterpart(viewer uuid.UUID) AccountSummary {
	if viewer == t.Student.ID {
		return t.Tutor
	}
	return t.Student
}

// Conversation is the normalized inbox row.
type Conversation struct {
	ID              uuid.UUID      `json:"id"`
	Type            ThreadKind     `json:"type"`
	OtherUser       AccountSummary `json:"otherUser"`
	LastMessage     string         `json:"lastMessage"`
	LastMessageTime time.Time      `json:"lastMessageTime"`
	IsUnread        bool           `json:"isUnread"`
	ContextLabel    string         `json:"contextLabel"`
}
