package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"   // Ожидает подтверждения тьютора
	BookingStatusConfirmed BookingStatus = "CONFIRMED" // Подтверждено
	BookingStatusCompleted BookingStatus = "COMPLETED" // Завершено
	BookingStatusCancelled BookingStatus = "CANCELLED" // Отменено
)

// Session length bounds in minutes, mirrored by the bookings CHECK constraint.
const (
	MinBookingDuration = 15
	MaxBookingDuration = 180
)

const DefaultBookingLocation = "Online"

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// TransitionSources returns the statuses a booking may move to target from.
// COMPLETED is reached only by the background job, so it has no manual source.
func TransitionSources(target BookingStatus) []BookingStatus {
	switch target {
	case BookingStatusConfirmed:
		return []BookingStatus{BookingStatusPending}
	case BookingStatusCancelled:
		return []BookingStatus{BookingStatusPending, BookingStatusConfirmed}
	default:
		return nil
	}
}

type Booking struct {
	ID        uuid.UUID     `json:"id"`
	StudentID uuid.UUID     `json:"studentId"`
	TutorID   uuid.UUID     `json:"tutorId"`
	Subject   string        `json:"subject"`
	Topic     *string       `json:"topic"`
	Date      time.Time     `json:"date"`
	Duration  int           `json:"duration"` // в минутах
	Location  string        `json:"location"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	// Заполняются при выборке с join-ами
	Student *AccountSummary `json:"student,omitempty"`
	Tutor   *AccountSummary `json:"tutor,omitempty"`
}

// EndsAt returns the moment the session is over.
func (b *Booking) EndsAt() time.Time {
	return b.Date.Add(time.Duration(b.Duration) * time.Minute)
}

// HasParticipant reports whether id is the student or the tutor.
func (b *Booking) HasParticipant(id uuid.UUID) bool {
	return b.StudentID == id || b.TutorID == id
}
