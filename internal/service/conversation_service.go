package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SendMessageInput struct {
	ID      string `json:"id" validate:"required,uuid"`
	Type    string `json:"type" validate:"required,oneof=BOOKING CONNECTION"`
	Content string `json:"content" validate:"required"`
}

type ConversationService struct {
	tx          Transactor
	bookings    BookingStore
	connections ConnectionStore
	messages    MessageStore
	logger      *zap.Logger
}

func NewConversationService(
	tx Transactor,
	bookings BookingStore,
	connections ConnectionStore,
	messages MessageStore,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		tx:          tx,
		bookings:    bookings,
		connections: connections,
		messages:    messages,
		logger:      logger,
	}
}

// Inbox треды по занятиям и принятым связям, свежие сверху
func (s *ConversationService) Inbox(ctx context.Context, actor model.Actor) ([]model.Conversation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	bookingThreads, err := s.bookings.ListThreads(ctx, actor.ID)
	if err != nil {
		return nil, failure(s.logger, "list booking threads", err)
	}
	connectionThreads, err := s.connections.ListThreads(ctx, actor.ID)
	if err != nil {
		return nil, failure(s.logger, "list connection threads", err)
	}

	inbox := make([]model.Conversation, 0, len(bookingThreads)+len(connectionThreads))
	for _, t := range bookingThreads {
		inbox = append(inbox, normalizeThread(t, actor.ID))
	}
	for _, t := range connectionThreads {
		inbox = append(inbox, normalizeThread(t, actor.ID))
	}

	slices.SortStableFunc(inbox, func(a, b model.Conversation) int {
		return b.LastMessageTime.Compare(a.LastMessageTime)
	})

	return inbox, nil
}

func normalizeThread(t *model.ThreadSummary, viewer uuid.UUID) model.Conversation {
	other := t.Counterpart(viewer)
	conv := model.Conversation{
		ID:              t.Ref.ID,
		Type:            t.Ref.Kind,
		OtherUser:       model.AccountSummary{ID: other.ID, Name: other.Name, Image: other.Image},
		LastMessageTime: t.ActivityAt,
	}

	if t.Ref.Kind == model.ThreadBooking {
		conv.LastMessage = model.BookingThreadPlaceholder
		conv.ContextLabel = t.Subject
	} else {
		conv.LastMessage = model.ConnectionThreadPlaceholder
		conv.ContextLabel = model.ConnectionContextLabel
	}

	if t.Last != nil {
		if t.Last.Content != "" {
			conv.LastMessage = t.Last.Content
		}
		conv.LastMessageTime = t.Last.CreatedAt
		conv.IsUnread = !t.Last.IsRead && t.Last.SenderID != viewer
	}

	return conv
}

// Thread сообщения треда по возрастанию времени.
// kind может быть пустым: тогда тред ищется сначала среди занятий, затем среди связей.
// Неизвестный id даёт пустой список.
func (s *ConversationService) Thread(ctx context.Context, actor model.Actor, id uuid.UUID, kind string) ([]*model.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if kind != "" {
		k := model.ThreadKind(kind)
		if !k.Valid() {
			return nil, badRequest("Invalid type")
		}
		messages, err := s.messages.ListThread(ctx, model.ThreadRef{Kind: k, ID: id}, actor.ID)
		if err != nil {
			return nil, failure(s.logger, "list thread", err)
		}
		return messages, nil
	}

	messages, err := s.resolveThread(ctx, actor.ID, id)
	if err != nil {
		return nil, failure(s.logger, "resolve thread", err, zap.String("thread_id", id.String()))
	}
	return messages, nil
}

func (s *ConversationService) resolveThread(ctx context.Context, viewer, id uuid.UUID) ([]*model.Message, error) {
	messages, err := s.messages.ListThread(ctx, model.ThreadRef{Kind: model.ThreadBooking, ID: id}, viewer)
	if err != nil || len(messages) > 0 {
		return messages, err
	}

	messages, err = s.messages.ListThread(ctx, model.ThreadRef{Kind: model.ThreadConnection, ID: id}, viewer)
	if err != nil || len(messages) > 0 {
		return messages, err
	}

	exists, err := s.connections.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.logger.Debug("Thread not found, returning empty", zap.String("thread_id", id.String()))
	}
	return messages, nil
}

// Send добавляет сообщение в тред и обновляет updated_at родителя в одной транзакции
func (s *ConversationService) Send(ctx context.Context, actor model.Actor, in SendMessageInput) (*model.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	ref := model.ThreadRef{Kind: model.ThreadKind(in.Type), ID: uuid.MustParse(in.ID)}
	msg := model.NewThreadMessage(ref, actor.ID, in.Content)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var touched bool
		var err error
		if ref.Kind == model.ThreadBooking {
			touched, err = s.bookings.Touch(ctx, ref.ID, actor.ID)
		} else {
			touched, err = s.connections.Touch(ctx, ref.ID, actor.ID)
		}
		if err != nil {
			return err
		}
		if !touched {
			return notFound("Conversation not found")
		}
		return s.messages.Create(ctx, msg)
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, failure(s.logger, "send message", err, zap.String("thread_id", ref.ID.String()))
	}

	s.logger.Debug("Message sent",
		zap.String("message_id", msg.ID.String()),
		zap.String("thread_type", string(ref.Kind)),
		zap.String("thread_id", ref.ID.String()),
	)

	return msg, nil
}

// MarkRead помечает прочитанными сообщения собеседника в треде
func (s *ConversationService) MarkRead(ctx context.Context, actor model.Actor, id uuid.UUID, kind string) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	k := model.ThreadKind(kind)
	if !k.Valid() {
		return 0, badRequest("Invalid type")
	}

	updated, err := s.messages.MarkRead(ctx, model.ThreadRef{Kind: k, ID: id}, actor.ID)
	if err != nil {
		return 0, failure(s.logger, "mark thread read", err)
	}
	return updated, nil
}
