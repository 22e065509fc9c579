package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionDate = "2025-03-10T15:00:00Z"

func TestBookingService_Create_StudentMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student, tutor := f.student("Ann"), f.tutor("Bob", 30)

	bookings, err := f.bookings.Create(ctx, student, CreateBookingInput{
		TutorID:  ptr(tutor.ID.String()),
		Subject:  "Calculus",
		Date:     sessionDate,
		Duration: 60,
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	b := bookings[0]
	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, student.ID, b.StudentID)
	assert.Equal(t, tutor.ID, b.TutorID)
	assert.Equal(t, model.DefaultBookingLocation, b.Location)
	assert.Equal(t, time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC), b.Date.UTC())
	assert.Equal(t, []string{"booking.created"}, f.notifier.events)
}

func TestBookingService_Create_FanOut(t *testing.T) {
	ctx := context.Background()

	t.Run("one confirmed booking per student", func(t *testing.T) {
		f := newFixture(t)
		tutor := f.tutor("Bob", 30)
		ann, cid := f.student("Ann"), f.student("Cid")

		bookings, err := f.bookings.Create(ctx, tutor, CreateBookingInput{
			StudentIDs: []string{ann.ID.String(), cid.ID.String()},
			Subject:    "Physics",
			Date:       sessionDate,
			Duration:   90,
			Location:   ptr("Library room 3"),
		})
		require.NoError(t, err)
		require.Len(t, bookings, 2)

		assert.Equal(t, ann.ID, bookings[0].StudentID)
		assert.Equal(t, cid.ID, bookings[1].StudentID)
		for _, b := range bookings {
			assert.Equal(t, model.BookingStatusConfirmed, b.Status)
			assert.Equal(t, tutor.ID, b.TutorID)
			assert.Equal(t, "Library room 3", b.Location)
		}
		assert.Equal(t, 2, f.store.BookingCount())
		assert.Equal(t, 1, f.store.Commits)
	})

	t.Run("failure on nth insert leaves nothing behind", func(t *testing.T) {
		f := newFixture(t)
		tutor := f.tutor("Bob", 30)
		ids := []string{f.student("A1").ID.String(), f.student("A2").ID.String(), f.student("A3").ID.String()}
		f.store.FailBookingInsertAt = 3

		_, err := f.bookings.Create(ctx, tutor, CreateBookingInput{
			StudentIDs: ids,
			Subject:    "Physics",
			Date:       sessionDate,
			Duration:   60,
		})
		requireKind(t, err, KindInternal)
		assert.Equal(t, 0, f.store.BookingCount())
		assert.Equal(t, 1, f.store.Rollbacks)
		assert.Empty(t, f.notifier.events)
	})

	t.Run("unknown student is a bad request and rolls back", func(t *testing.T) {
		f := newFixture(t)
		tutor := f.tutor("Bob", 30)
		unknown := uuid.New()

		_, err := f.bookings.Create(ctx, tutor, CreateBookingInput{
			StudentIDs: []string{f.student("Ann").ID.String(), unknown.String()},
			Subject:    "Physics",
			Date:       sessionDate,
			Duration:   60,
		})
		svcErr := requireKind(t, err, KindBadRequest)
		assert.Contains(t, svcErr.Message, unknown.String())
		assert.Equal(t, 0, f.store.BookingCount())
	})

	t.Run("repeated student id is rejected before any insert", func(t *testing.T) {
		f := newFixture(t)
		tutor := f.tutor("Bob", 30)
		ann := f.student("Ann")

		_, err := f.bookings.Create(ctx, tutor, CreateBookingInput{
			StudentIDs: []string{ann.ID.String(), ann.ID.String()},
			Subject:    "Physics",
			Date:       sessionDate,
			Duration:   60,
		})
		svcErr := requireKind(t, err, KindBadRequest)
		assert.Contains(t, svcErr.Fields, "studentIds")
		assert.Equal(t, 0, f.store.BookingCount())
		assert.Equal(t, 0, f.store.Commits)
		assert.Empty(t, f.notifier.events)
	})

	t.Run("tutor cannot book themselves", func(t *testing.T) {
		f := newFixture(t)
		tutor := f.tutor("Bob", 30)
		_, err := f.bookings.Create(ctx, tutor, CreateBookingInput{
			StudentIDs: []string{tutor.ID.String()},
			Subject:    "Physics",
			Date:       sessionDate,
			Duration:   60,
		})
		requireKind(t, err, KindBadRequest)
	})
}

func TestBookingService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student, tutor := f.student("Ann"), f.tutor("Bob", 30)
	valid := func() CreateBookingInput {
		return CreateBookingInput{TutorID: ptr(tutor.ID.String()), Subject: "Calculus", Date: sessionDate, Duration: 60}
	}

	tests := []struct {
		name   string
		mutate func(in *CreateBookingInput)
		field  string
	}{
		{name: "duration too long", mutate: func(in *CreateBookingInput) { in.Duration = 200 }, field: "duration"},
		{name: "duration too short", mutate: func(in *CreateBookingInput) { in.Duration = 10 }, field: "duration"},
		{name: "subject too short", mutate: func(in *CreateBookingInput) { in.Subject = " x " }, field: "subject"},
		{name: "date not rfc3339", mutate: func(in *CreateBookingInput) { in.Date = "10/03/2025" }, field: "date"},
		{name: "bad student id", mutate: func(in *CreateBookingInput) { in.StudentIDs = []string{"nope"} }, field: "studentIds[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := f.bookings.Create(ctx, student, in)
			svcErr := requireKind(t, err, KindBadRequest)
			assert.Contains(t, svcErr.Fields, tt.field)
		})
	}

	t.Run("duration message names the bounds", func(t *testing.T) {
		in := valid()
		in.Duration = 181
		_, err := f.bookings.Create(ctx, student, in)
		svcErr := requireKind(t, err, KindBadRequest)
		assert.Equal(t, []string{"Must be between 15 and 180 minutes"}, svcErr.Fields["duration"])
	})

	t.Run("neither tutor nor students", func(t *testing.T) {
		in := valid()
		in.TutorID = nil
		_, err := f.bookings.Create(ctx, student, in)
		requireKind(t, err, KindBadRequest)
	})

	t.Run("fractional seconds accepted", func(t *testing.T) {
		in := valid()
		in.Date = "2025-03-10T15:00:00.000Z"
		_, err := f.bookings.Create(ctx, student, in)
		require.NoError(t, err)
	})

	assert.Equal(t, 1, f.store.BookingCount())
}

func TestBookingService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student, tutor := f.student("Ann"), f.tutor("Bob", 30)
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	later := f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "Late", Date: base.Add(48 * time.Hour), Duration: 60, Status: model.BookingStatusConfirmed})
	earlier := f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "Early", Date: base, Duration: 60, Status: model.BookingStatusPending})
	f.store.AddBooking(model.Booking{StudentID: f.student("Zed").ID, TutorID: f.tutor("Yan", 10).ID, Subject: "Other", Date: base, Duration: 60, Status: model.BookingStatusPending})

	list, err := f.bookings.List(ctx, student, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, earlier.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)
	require.NotNil(t, list[0].Student)
	assert.NotEmpty(t, list[0].Student.Email)

	asTutor, err := f.bookings.List(ctx, tutor, "CONFIRMED")
	require.NoError(t, err)
	require.Len(t, asTutor, 1)
	assert.Equal(t, later.ID, asTutor[0].ID)

	_, err = f.bookings.List(ctx, student, "DONE")
	requireKind(t, err, KindBadRequest)
}

func TestBookingService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, status model.BookingStatus) (*fixture, model.Actor, model.Actor, *model.Booking) {
		f := newFixture(t)
		student, tutor := f.student("Ann"), f.tutor("Bob", 30)
		b := f.store.AddBooking(model.Booking{
			StudentID: student.ID, TutorID: tutor.ID, Subject: "Calculus",
			Date: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), Duration: 60, Status: status,
		})
		return f, student, tutor, b
	}

	t.Run("tutor confirms pending", func(t *testing.T) {
		f, _, tutor, b := setup(t, model.BookingStatusPending)
		updated, err := f.bookings.UpdateStatus(ctx, tutor, b.ID, UpdateBookingStatusInput{Status: "CONFIRMED"})
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusConfirmed, updated.Status)
		assert.Equal(t, []string{"booking.status_changed"}, f.notifier.events)
	})

	t.Run("student cannot confirm", func(t *testing.T) {
		f, student, _, b := setup(t, model.BookingStatusPending)
		_, err := f.bookings.UpdateStatus(ctx, student, b.ID, UpdateBookingStatusInput{Status: "CONFIRMED"})
		requireKind(t, err, KindBadRequest)
		stored, _ := f.store.Booking(b.ID)
		assert.Equal(t, model.BookingStatusPending, stored.Status)
	})

	t.Run("either party cancels confirmed", func(t *testing.T) {
		f, student, _, b := setup(t, model.BookingStatusConfirmed)
		updated, err := f.bookings.UpdateStatus(ctx, student, b.ID, UpdateBookingStatusInput{Status: "CANCELLED"})
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusCancelled, updated.Status)
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		f, _, tutor, b := setup(t, model.BookingStatusCompleted)
		_, err := f.bookings.UpdateStatus(ctx, tutor, b.ID, UpdateBookingStatusInput{Status: "CANCELLED"})
		requireKind(t, err, KindBadRequest)
	})

	t.Run("completed is not a manual target", func(t *testing.T) {
		f, _, tutor, b := setup(t, model.BookingStatusConfirmed)
		_, err := f.bookings.UpdateStatus(ctx, tutor, b.ID, UpdateBookingStatusInput{Status: "COMPLETED"})
		requireKind(t, err, KindBadRequest)
	})

	t.Run("outsider gets not found", func(t *testing.T) {
		f, _, _, b := setup(t, model.BookingStatusPending)
		_, err := f.bookings.UpdateStatus(ctx, f.tutor("Eve", 0), b.ID, UpdateBookingStatusInput{Status: "CANCELLED"})
		requireKind(t, err, KindNotFound)
	})
}

func TestBookingService_CompleteElapsed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student, tutor := f.student("Ann"), f.tutor("Bob", 30)
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	f.bookings.now = func() time.Time { return now }

	done := f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "A1", Date: now.Add(-2 * time.Hour), Duration: 120, Status: model.BookingStatusConfirmed})
	running := f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "A2", Date: now.Add(-30 * time.Minute), Duration: 60, Status: model.BookingStatusConfirmed})
	pending := f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "A3", Date: now.Add(-5 * time.Hour), Duration: 60, Status: model.BookingStatusPending})

	n, err := f.bookings.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	b, _ := f.store.Booking(done.ID)
	assert.Equal(t, model.BookingStatusCompleted, b.Status)
	b, _ = f.store.Booking(running.ID)
	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	b, _ = f.store.Booking(pending.ID)
	assert.Equal(t, model.BookingStatusPending, b.Status)
}

func TestBookingService_WeekImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student, tutor := f.student("Ann"), f.tutor("Bob", 30)
	wednesday := time.Date(2025, time.March, 12, 18, 30, 0, 0, time.UTC)

	inWeek := f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "In", Date: wednesday, Duration: 60, Status: model.BookingStatusConfirmed})
	f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "Next", Date: wednesday.AddDate(0, 0, 7), Duration: 60, Status: model.BookingStatusConfirmed})
	f.store.AddBooking(model.Booking{StudentID: student.ID, TutorID: tutor.ID, Subject: "Gone", Date: wednesday, Duration: 60, Status: model.BookingStatusCancelled})

	img, err := f.bookings.WeekImage(ctx, student, wednesday)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), img)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), f.renderer.start)
	require.Len(t, f.renderer.bookings, 1)
	assert.Equal(t, inWeek.ID, f.renderer.bookings[0].ID)
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2025, time.March, 16, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), WeekStart(sunday))

	monday := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, WeekStart(monday))
}
