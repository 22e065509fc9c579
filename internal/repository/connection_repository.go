package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository/base"
	"github.com/google/uuid"
)

type ConnectionRepository struct {
	*base.Repository
}

func NewConnectionRepository(db base.DB) *ConnectionRepository {
	return &ConnectionRepository{Repository: base.NewRepository(db)}
}

// Create создает заявку студента к тьютору
func (r *ConnectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	query := `
		INSERT INTO connections (student_id, tutor_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		conn.StudentID,
		conn.TutorID,
		string(conn.Status),
	).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)

	if err != nil {
		return classify("create connection", err)
	}

	return nil
}

// Decide меняет статус pending-заявки, адресованной этому тьютору.
// Возвращает nil, если подходящей строки нет (чужая, не существует или уже решена).
func (r *ConnectionRepository) Decide(ctx context.Context, id, tutorID uuid.UUID, status model.ConnectionStatus) (*model.Connection, error) {
	query := `
		UPDATE connections
		SET status = $1, updated_at = now()
		WHERE id = $2 AND tutor_id = $3 AND status = $4
		RETURNING id, student_id, tutor_id, status, created_at, updated_at
	`

	var conn model.Connection
	var st string
	err := r.QueryRow(ctx, query, string(status), id, tutorID, string(model.ConnectionStatusPending)).Scan(
		&conn.ID,
		&conn.StudentID,
		&conn.TutorID,
		&st,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("decide connection: %w", err)
	}

	conn.Status = model.ConnectionStatus(st)
	return &conn, nil
}

// ListByTutor получает заявки тьютора с профилем студента, новые сверху
func (r *ConnectionRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID, status model.ConnectionStatus) ([]*model.Connection, error) {
	query := `
		SELECT c.id, c.student_id, c.tutor_id, c.status, c.created_at, c.updated_at,
			s.id, s.name, s.image, s.institution, s.major
		FROM connections c
		JOIN accounts s ON s.id = c.student_id
		WHERE c.tutor_id = $1 AND c.status = $2
		ORDER BY c.created_at DESC
	`

	rows, err := r.Query(ctx, query, tutorID, string(status))
	if err != nil {
		return nil, fmt.Errorf("get tutor connections: %w", err)
	}
	defer rows.Close()

	connections := make([]*model.Connection, 0)
	for rows.Next() {
		var conn model.Connection
		var student model.AccountSummary
		var st string
		err := rows.Scan(
			&conn.ID,
			&conn.StudentID,
			&conn.TutorID,
			&st,
			&conn.CreatedAt,
			&conn.UpdatedAt,
			&student.ID,
			&student.Name,
			&student.Image,
			&student.Institution,
			&student.Major,
		)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conn.Status = model.ConnectionStatus(st)
		conn.Student = &student
		connections = append(connections, &conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return connections, nil
}

// CountPendingByTutor подсчитывает количество pending заявок тьютора
func (r *ConnectionRepository) CountPendingByTutor(ctx context.Context, tutorID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM connections
		WHERE tutor_id = $1 AND status = $2
	`

	var count int
	err := r.QueryRow(ctx, query, tutorID, string(model.ConnectionStatusPending)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending connections: %w", err)
	}

	return count, nil
}

// Exists проверяет, есть ли связь с таким ID
func (r *ConnectionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM connections WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check connection exists: %w", err)
	}
	return exists, nil
}

// Touch обновляет updated_at, если участник состоит в принятой связи
func (r *ConnectionRepository) Touch(ctx context.Context, id, participantID uuid.UUID) (bool, error) {
	query := `
		UPDATE connections
		SET updated_at = now()
		WHERE id = $1 AND status = $2 AND (student_id = $3 OR tutor_id = $3)
	`

	affected, err := r.ExecAffected(ctx, query, id, string(model.ConnectionStatusAccepted), participantID)
	if err != nil {
		return false, fmt.Errorf("touch connection: %w", err)
	}
	return affected > 0, nil
}

// ListThreads получает принятые связи участника с последним сообщением
func (r *ConnectionRepository) ListThreads(ctx context.Context, userID uuid.UUID) ([]*model.ThreadSummary, error) {
	query := `
		SELECT c.id, c.updated_at,
			s.id, s.name, s.image, t.id, t.name, t.image,
			m.id, m.sender_id, m.content, m.is_read, m.created_at
		FROM connections c
		JOIN accounts s ON s.id = c.student_id
		JOIN accounts t ON t.id = c.tutor_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, is_read, created_at
			FROM messages
			WHERE connection_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) m ON true
		WHERE c.status = $2 AND (c.student_id = $1 OR c.tutor_id = $1)
	`

	rows, err := r.Query(ctx, query, userID, string(model.ConnectionStatusAccepted))
	if err != nil {
		return nil, fmt.Errorf("get connection threads: %w", err)
	}
	defer rows.Close()

	threads := make([]*model.ThreadSummary, 0)
	for rows.Next() {
		t := model.ThreadSummary{Ref: model.ThreadRef{Kind: model.ThreadConnection}}
		var last lastMessageColumns
		err := rows.Scan(
			&t.Ref.ID,
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
			return nil, fmt.Errorf("scan connection thread: %w", err)
		}
		t.Last = last.message(t.Ref)
		threads = append(threads, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection threads: %w", err)
	}

	return threads, nil
}
