package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository/base"
	"github.com/google/uuid"
)

const bookingColumns = `b.id, b.student_id, b.tutor_id, b.subject, b.topic, b.date, b.duration,
		b.location, b.status, b.created_at, b.updated_at`

const bookingWithPartiesColumns = bookingColumns + `,
		s.id, s.name, s.image, s.email, t.id, t.name, t.image`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(db base.DB) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(db)}
}

func bookingFields(b *model.Booking, status *string) []any {
	return []any{
		&b.ID,
		&b.StudentID,
		&b.TutorID,
		&b.Subject,
		&b.Topic,
		&b.Date,
		&b.Duration,
		&b.Location,
		status,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

func scanBookingWithParties(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var status string
	var student, tutor model.AccountSummary
	dest := append(bookingFields(&b, &status),
		&student.ID, &student.Name, &student.Image, &student.Email,
		&tutor.ID, &tutor.Name, &tutor.Image,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	b.Student = &student
	b.Tutor = &tutor
	return &b, nil
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (student_id, tutor_id, subject, topic, date, duration, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.StudentID,
		booking.TutorID,
		booking.Subject,
		booking.Topic,
		booking.Date,
		booking.Duration,
		booking.Location,
		string(booking.Status),
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return classify("create booking", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	var b model.Booking
	var status string
	err := r.QueryRow(ctx, query, id).Scan(bookingFields(&b, &status)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	b.Status = model.BookingStatus(status)
	return &b, nil
}

func (r *BookingRepository) listWithParties(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		b, err := scanBookingWithParties(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// ListForParticipant получает бронирования, где пользователь студент или тьютор
func (r *BookingRepository) ListForParticipant(ctx context.Context, userID uuid.UUID, status *model.BookingStatus) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingWithPartiesColumns + `
		FROM bookings b
		JOIN accounts s ON s.id = b.student_id
		JOIN accounts t ON t.id = b.tutor_id
		WHERE (b.student_id = $1 OR b.tutor_id = $1)
			AND ($2::text IS NULL OR b.status = $2)
		ORDER BY b.date ASC
	`

	var st *string
	if status != nil {
		s := string(*status)
		st = &s
	}

	return r.listWithParties(ctx, "get participant bookings", query, userID, st)
}

// ListUpcomingAsStudent ближайшие неотменённые занятия студента
func (r *BookingRepository) ListUpcomingAsStudent(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingWithPartiesColumns + `
		FROM bookings b
		JOIN accounts s ON s.id = b.student_id
		JOIN accounts t ON t.id = b.tutor_id
		WHERE b.student_id = $1 AND b.date >= $2 AND b.status <> 'CANCELLED'
		ORDER BY b.date ASC
		LIMIT $3
	`

	return r.listWithParties(ctx, "get upcoming student bookings", query, studentID, from, limit)
}

// ListUpcomingAsTutor ближайшие неотменённые занятия тьютора
func (r *BookingRepository) ListUpcomingAsTutor(ctx context.Context, tutorID uuid.UUID, from time.Time, limit int) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingWithPartiesColumns + `
		FROM bookings b
		JOIN accounts s ON s.id = b.student_id
		JOIN accounts t ON t.id = b.tutor_id
		WHERE b.tutor_id = $1 AND b.date >= $2 AND b.status <> 'CANCELLED'
		ORDER BY b.date ASC
		LIMIT $3
	`

	return r.listWithParties(ctx, "get upcoming tutor bookings", query, tutorID, from, limit)
}

// ListBetween неотменённые занятия участника в интервале [from, to)
func (r *BookingRepository) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingWithPartiesColumns + `
		FROM bookings b
		JOIN accounts s ON s.id = b.student_id
		JOIN accounts t ON t.id = b.tutor_id
		WHERE (b.student_id = $1 OR b.tutor_id = $1)
			AND b.date >= $2 AND b.date < $3
			AND b.status <> 'CANCELLED'
		ORDER BY b.date ASC
	`

	return r.listWithParties(ctx, "get bookings between", query, userID, from, to)
}

// ListForAnalytics подтверждённые и завершённые занятия тьютора, новые сверху.
// search фильтрует по имени студента без учёта регистра.
func (r *BookingRepository) ListForAnalytics(ctx context.Context, tutorID uuid.UUID, search string) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `,
			s.id, s.name, s.image, s.institution, s.major
		FROM bookings b
		JOIN accounts s ON s.id = b.student_id
		WHERE b.tutor_id = $1
			AND b.status IN ('CONFIRMED', 'COMPLETED')
			AND ($2 = '' OR s.name ILIKE $3)
		ORDER BY b.date DESC
	`

	rows, err := r.Query(ctx, query, tutorID, search, likePattern(search))
	if err != nil {
		return nil, fmt.Errorf("get analytics bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		var status string
		var student model.AccountSummary
		dest := append(bookingFields(&b, &status),
			&student.ID, &student.Name, &student.Image, &student.Institution, &student.Major,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.Status = model.BookingStatus(status)
		b.Student = &student
		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// UpdateStatus переводит бронирование в статус to, только если текущий статус из from.
// Возвращает false, если строка не подошла.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.BookingStatus, to model.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)
	`

	sources := make([]string, len(from))
	for i, s := range from {
		sources[i] = string(s)
	}

	affected, err := r.ExecAffected(ctx, query, string(to), id, sources)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}

	return affected > 0, nil
}

// CompleteElapsed помечает завершёнными подтверждённые занятия, которые уже прошли
func (r *BookingRepository) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'COMPLETED', updated_at = now()
		WHERE status = 'CONFIRMED'
			AND date + make_interval(mins => duration) <= $1
	`

	affected, err := r.ExecAffected(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("complete elapsed bookings: %w", err)
	}

	return affected, nil
}

// Touch обновляет updated_at, если пользователь участник бронирования
func (r *BookingRepository) Touch(ctx context.Context, id, participantID uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET updated_at = now()
		WHERE id = $1 AND (student_id = $2 OR tutor_id = $2)
	`

	affected, err := r.ExecAffected(ctx, query, id, participantID)
	if err != nil {
		return false, fmt.Errorf("touch booking: %w", err)
	}
	return affected > 0, nil
}

// ListThreads получает бронирования участника с последним сообщением
func (r *BookingRepository) ListThreads(ctx context.Context, userID uuid.UUID) ([]*model.ThreadSummary, error) {
	query := `
		SELECT b.id, b.subject, b.created_at,
			s.id, s.name, s.image, t.id, t.name, t.image,
			m.id, m.sender_id, m.content, m.is_read, m.created_at
		FROM bookings b
		JOIN accounts s ON s.id = b.student_id
		JOIN accounts t ON t.id = b.tutor_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, is_read, created_at
			FROM messages
			WHERE booking_id = b.id
			ORDER BY created_at DESC
			LIMIT 1
		) m ON true
		WHERE b.student_id = $1 OR b.tutor_id = $1
	`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get booking threads: %w", err)
	}
	defer rows.Close()

	threads := make([]*model.ThreadSummary, 0)
	for rows.Next() {
		t := model.ThreadSummary{Ref: model.ThreadRef{Kind: model.ThreadBooking}}
		var last lastMessageColumns
		err := rows.Scan(
			&t.Ref.ID,
			&t.Subject,
			&t.ActivityAt,
			&t.Student.ID,
			&t.Student.Name,
			&t.Student.Image,
			&t.Tutor.ID,
			&t.Tutor.Name,
			&t.Tutor.Image,
			&last.id,
			&last.senderID,
			&last.content,
			&last.isRead,
			&last.createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking thread: %w", err)
		}
		t.Last = last.message(t.Ref)
		threads = append(threads, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking threads: %w", err)
	}

	return threads, nil
}
