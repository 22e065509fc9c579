package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{
	"id", "name", "email", "password_hash", "image", "role", "institution", "major", "bio",
	"hourly_rate", "subjects", "rating", "total_reviews", "telegram_chat_id", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestAccountCreateLowercasesEmail(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("Ana", "ana@uni.edu", "hash", "State University", "STUDENT").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))

	account := &model.Account{
		Name:         "Ana",
		Email:        "Ana@Uni.EDU",
		PasswordHash: "hash",
		Institution:  "State University",
		Role:         model.RoleStudent,
	}
	err := NewAccountRepository(mock).Create(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
}

func TestAccountCreateDuplicate(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewAccountRepository(mock).Create(context.Background(), &model.Account{Email: "a@b.c"})

	require.ErrorIs(t, err, ErrDuplicate)
}

func TestAccountGetByEmailNotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("FROM accounts WHERE email").
		WithArgs("ana@uni.edu").
		WillReturnRows(pgxmock.NewRows(accountCols))

	account, err := NewAccountRepository(mock).GetByEmail(context.Background(), "ANA@uni.edu")

	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestAccountGetByTelegramChatID(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	chatID := int64(4242)
	now := time.Now()

	mock.ExpectQuery("FROM accounts WHERE telegram_chat_id").
		WithArgs(chatID).
		WillReturnRows(pgxmock.NewRows(accountCols).AddRow(
			id, "Tess", "tess@uni.edu", "hash", "", "TUTOR", "Uni", "Math", "",
			30.0, "Algebra", 4.5, 10, &chatID, now, now,
		))

	account, err := NewAccountRepository(mock).GetByTelegramChatID(context.Background(), chatID)

	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, model.RoleTutor, account.Role)
	require.NotNil(t, account.TelegramChatID)
	assert.Equal(t, chatID, *account.TelegramChatID)
}

func TestAccountUpdateProfileChatTaken(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	chatID := int64(4242)

	mock.ExpectQuery("UPDATE accounts").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), &chatID, id).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	account, err := NewAccountRepository(mock).UpdateProfile(context.Background(), id, model.ProfileUpdate{
		TelegramChatID: &chatID,
	})

	require.ErrorIs(t, err, ErrDuplicate)
	assert.Nil(t, account)
}

func TestPromoteToTutorJoinsSubjects(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery("UPDATE accounts").
		WithArgs("TUTOR", "Mathematics", "Algebra,Calculus", 25.0, id).
		WillReturnRows(pgxmock.NewRows(accountCols))

	account, err := NewAccountRepository(mock).PromoteToTutor(context.Background(), id, model.TutorApplication{
		Major:      "Mathematics",
		Subjects:   []string{"Algebra", "Calculus"},
		HourlyRate: 25,
	})

	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestConnectionCreateUnknownTutor(t *testing.T) {
	mock := newMock(t)
	conn := &model.Connection{StudentID: uuid.New(), TutorID: uuid.New(), Status: model.ConnectionStatusPending}

	mock.ExpectQuery("INSERT INTO connections").
		WithArgs(conn.StudentID, conn.TutorID, "PENDING").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := NewConnectionRepository(mock).Create(context.Background(), conn)

	require.ErrorIs(t, err, ErrReferenceMissing)
}

func TestConnectionDecideMissingRow(t *testing.T) {
	mock := newMock(t)
	id, tutorID := uuid.New(), uuid.New()

	mock.ExpectQuery("UPDATE connections").
		WithArgs("ACCEPTED", id, tutorID, "PENDING").
		WillReturnRows(pgxmock.NewRows([]string{"id", "student_id", "tutor_id", "status", "created_at", "updated_at"}))

	conn, err := NewConnectionRepository(mock).Decide(context.Background(), id, tutorID, model.ConnectionStatusAccepted)

	require.NoError(t, err)
	assert.Nil(t, conn)
}

func TestConnectionTouchRequiresAccepted(t *testing.T) {
	mock := newMock(t)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE connections").
		WithArgs(id, "ACCEPTED", userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	touched, err := NewConnectionRepository(mock).Touch(context.Background(), id, userID)

	require.NoError(t, err)
	assert.False(t, touched)
}

func TestBookingUpdateStatusIsConditional(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE bookings").
		WithArgs("CANCELLED", id, []string{"PENDING", "CONFIRMED"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := NewBookingRepository(mock).UpdateStatus(
		context.Background(),
		id,
		model.TransitionSources(model.BookingStatusCancelled),
		model.BookingStatusCancelled,
	)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBookingCompleteElapsed(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("SET status = 'COMPLETED'").
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	completed, err := NewBookingRepository(mock).CompleteElapsed(context.Background(), now)

	require.NoError(t, err)
	assert.EqualValues(t, 3, completed)
}

func TestBookingThreadsWithoutMessages(t *testing.T) {
	mock := newMock(t)
	userID := uuid.New()
	bookingID, studentID, tutorID := uuid.New(), uuid.New(), uuid.New()
	created := time.Now()

	mock.ExpectQuery("FROM bookings b").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "subject", "created_at",
			"s_id", "s_name", "s_image", "t_id", "t_name", "t_image",
			"m_id", "m_sender", "m_content", "m_read", "m_created",
		}).AddRow(
			bookingID, "Calculus", created,
			studentID, "Sam", "", tutorID, "Tess", "",
			(*uuid.UUID)(nil), (*uuid.UUID)(nil), (*string)(nil), (*bool)(nil), (*time.Time)(nil),
		))

	threads, err := NewBookingRepository(mock).ListThreads(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, model.ThreadRef{Kind: model.ThreadBooking, ID: bookingID}, threads[0].Ref)
	assert.Equal(t, "Calculus", threads[0].Subject)
	assert.Equal(t, "Tess", threads[0].Counterpart(studentID).Name)
	assert.Nil(t, threads[0].Last)
}

func TestMessageCreate(t *testing.T) {
	mock := newMock(t)
	bookingID, senderID, msgID := uuid.New(), uuid.New(), uuid.New()
	created := time.Now()

	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(senderID, "hello", false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(msgID, created))

	msg := model.NewThreadMessage(model.ThreadRef{Kind: model.ThreadBooking, ID: bookingID}, senderID, "hello")
	err := NewMessageRepository(mock).Create(context.Background(), msg)

	require.NoError(t, err)
	assert.Equal(t, msgID, msg.ID)
	assert.Nil(t, msg.ConnectionID)
}

func TestMessageMarkReadUsesThreadColumn(t *testing.T) {
	mock := newMock(t)
	connID, readerID := uuid.New(), uuid.New()

	mock.ExpectExec(`FROM connections p\s+WHERE p\.id = m\.connection_id`).
		WithArgs(connID, readerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	updated, err := NewMessageRepository(mock).MarkRead(
		context.Background(),
		model.ThreadRef{Kind: model.ThreadConnection, ID: connID},
		readerID,
	)

	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, "%50\\%\\_off%", likePattern("50%_off"))
	assert.Equal(t, "%%", likePattern(""))
}
