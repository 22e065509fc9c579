package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository/base"
	"github.com/google/uuid"
)

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(db base.DB) *MessageRepository {
	return &MessageRepository{Repository: base.NewRepository(db)}
}

// lastMessageColumns nullable-колонки последнего сообщения из LEFT JOIN LATERAL
type lastMessageColumns struct {
	id        *uuid.UUID
	senderID  *uuid.UUID
	content   *string
	isRead    *bool
	createdAt *time.Time
}

func (c lastMessageColumns) message(ref model.ThreadRef) *model.Message {
	if c.id == nil {
		return nil
	}
	msg := model.NewThreadMessage(ref, *c.senderID, *c.content)
	msg.ID = *c.id
	msg.IsRead = *c.isRead
	msg.CreatedAt = *c.createdAt
	return msg
}

// threadColumn имя внешнего ключа и таблица-родитель для треда
func threadColumn(kind model.ThreadKind) (column, parent string) {
	if kind == model.ThreadBooking {
		return "booking_id", "bookings"
	}
	return "connection_id", "connections"
}

// Create создаёт сообщение в треде
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (sender_id, content, is_read, booking_id, connection_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		msg.SenderID,
		msg.Content,
		msg.IsRead,
		msg.BookingID,
		msg.ConnectionID,
	).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		return classify("create message", err)
	}

	return nil
}

// ListThread получает сообщения треда по возрастанию времени.
// Пустой результат, если треда нет или пользователь в нём не участвует.
func (r *MessageRepository) ListThread(ctx context.Context, ref model.ThreadRef, participantID uuid.UUID) ([]*model.Message, error) {
	column, parent := threadColumn(ref.Kind)
	query := fmt.Sprintf(`
		SELECT m.id, m.sender_id, m.content, m.is_read, m.created_at, m.booking_id, m.connection_id
		FROM messages m
		JOIN %[2]s p ON p.id = m.%[1]s
		WHERE m.%[1]s = $1 AND (p.student_id = $2 OR p.tutor_id = $2)
		ORDER BY m.created_at ASC
	`, column, parent)

	rows, err := r.Query(ctx, query, ref.ID, participantID)
	if err != nil {
		return nil, fmt.Errorf("get thread messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*model.Message, 0)
	for rows.Next() {
		var msg model.Message
		err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.Content,
			&msg.IsRead,
			&msg.CreatedAt,
			&msg.BookingID,
			&msg.ConnectionID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// MarkRead помечает прочитанными входящие сообщения треда для readerID
func (r *MessageRepository) MarkRead(ctx context.Context, ref model.ThreadRef, readerID uuid.UUID) (int64, error) {
	column, parent := threadColumn(ref.Kind)
	query := fmt.Sprintf(`
		UPDATE messages m
		SET is_read = true
		FROM %[2]s p
		WHERE p.id = m.%[1]s
			AND m.%[1]s = $1
			AND m.sender_id <> $2
			AND m.is_read = false
			AND (p.student_id = $2 OR p.tutor_id = $2)
	`, column, parent)

	affected, err := r.ExecAffected(ctx, query, ref.ID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark thread read: %w", err)
	}

	return affected, nil
}
