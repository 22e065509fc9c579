package model

import (
	"time"

	"github.com/google/uuid"
)

// ThreadKind tells which relation a conversation is anchored to.
type ThreadKind string

const (
	ThreadBooking    ThreadKind = "BOOKING"
	ThreadConnection ThreadKind = "CONNECTION"
)

// Valid reports whether k is a known thread kind.
func (k ThreadKind) Valid() bool {
	return k == ThreadBooking || k == ThreadConnection
}

// ThreadRef identifies a conversation: a booking id or a connection id.
type ThreadRef struct {
	Kind ThreadKind
	ID   uuid.UUID
}

// Message belongs to exactly one thread: BookingID or ConnectionID is set.
type Message struct {
	ID           uuid.UUID  `json:"id"`
	SenderID     uuid.UUID  `json:"senderId"`
	Content      string     `json:"content"`
	IsRead       bool       `json:"isRead"`
	CreatedAt    time.Time  `json:"createdAt"`
	BookingID    *uuid.UUID `json:"bookingId"`
	ConnectionID *uuid.UUID `json:"connectionId"`
}

// NewThreadMessage builds an unread message attached to ref.
func NewThreadMessage(ref ThreadRef, senderID uuid.UUID, content string) *Message {
	msg := &Message{SenderID: senderID, Content: content}
	id := ref.ID
	if ref.Kind == ThreadBooking {
		msg.BookingID = &id
	} else {
		msg.ConnectionID = &id
	}
	return msg
}

// Thread returns the reference of the thread the message belongs to.
func (m *Message) Thread() ThreadRef {
	if m.BookingID != nil {
		return ThreadRef{Kind: ThreadBooking, ID: *m.BookingID}
	}
	if m.ConnectionID != nil {
		return ThreadRef{Kind: ThreadConnection, ID: *m.ConnectionID}
	}
	return ThreadRef{}
}
