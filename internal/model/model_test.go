package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role    Role
		teaches bool
	}{
		{RoleStudent, false},
		{RoleTutor, true},
		{RoleBoth, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.True(t, tt.role.Valid())
			assert.Equal(t, tt.teaches, tt.role.Teaches())
		})
	}

	assert.False(t, Role("ADMIN").Valid())
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []BookingStatus{BookingStatusPending}, TransitionSources(BookingStatusConfirmed))
	assert.Equal(t, []BookingStatus{BookingStatusPending, BookingStatusConfirmed}, TransitionSources(BookingStatusCancelled))
	assert.Empty(t, TransitionSources(BookingStatusCompleted))
	assert.Empty(t, TransitionSources(BookingStatusPending))
}

func TestBookingEndsAtAndParticipants(t *testing.T) {
	student, tutor := uuid.New(), uuid.New()
	b := &Booking{
		StudentID: student,
		TutorID:   tutor,
		Date:      time.Date(2030, time.March, 4, 10, 0, 0, 0, time.UTC),
		Duration:  90,
	}

	assert.Equal(t, time.Date(2030, time.March, 4, 11, 30, 0, 0, time.UTC), b.EndsAt())
	assert.True(t, b.HasParticipant(student))
	assert.True(t, b.HasParticipant(tutor))
	assert.False(t, b.HasParticipant(uuid.New()))
}

func TestThreadMessageAnchorsExactlyOneParent(t *testing.T) {
	id := uuid.New()

	booking := NewThreadMessage(ThreadRef{Kind: ThreadBooking, ID: id}, uuid.New(), "hi")
	assert.NotNil(t, booking.BookingID)
	assert.Nil(t, booking.ConnectionID)
	assert.Equal(t, ThreadRef{Kind: ThreadBooking, ID: id}, booking.Thread())

	conn := NewThreadMessage(ThreadRef{Kind: ThreadConnection, ID: id}, uuid.New(), "hi")
	assert.Nil(t, conn.BookingID)
	assert.Equal(t, ThreadRef{Kind: ThreadConnection, ID: id}, conn.Thread())

	assert.Equal(t, ThreadRef{}, (&Message{}).Thread())
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, BookingStatusCompleted.Valid())
	assert.False(t, BookingStatus("DONE").Valid())
	assert.True(t, ConnectionStatusRejected.Valid())
	assert.False(t, ConnectionStatus("MAYBE").Valid())
	assert.True(t, ThreadConnection.Valid())
	assert.False(t, ThreadKind("").Valid())
}

func TestCounterpart(t *testing.T) {
	student := AccountSummary{ID: uuid.New(), Name: "Sam"}
	tutor := AccountSummary{ID: uuid.New(), Name: "Tess"}
	thread := &ThreadSummary{Student: student, Tutor: tutor}

	assert.Equal(t, tutor, thread.Counterpart(student.ID))
	assert.Equal(t, student, thread.Counterpart(tutor.ID))
}
