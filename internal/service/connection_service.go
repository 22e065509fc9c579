package service

import (
	"context"
	"errors"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestConnectionInput struct {
	TutorID string `json:"tutorId" validate:"required,uuid"`
}

type DecideConnectionInput struct {
	ConnectionID string `json:"connectionId" validate:"required,uuid"`
	Status       string `json:"status" validate:"required,oneof=ACCEPTED REJECTED"`
}

type ConnectionService struct {
	tx          Transactor
	connections ConnectionStore
	messages    MessageStore
	notifier    Notifier
	logger      *zap.Logger
}

func NewConnectionService(
	tx Transactor,
	connections ConnectionStore,
	messages MessageStore,
	notifier Notifier,
	logger *zap.Logger,
) *ConnectionService {
	return &ConnectionService{
		tx:          tx,
		connections: connections,
		messages:    messages,
		notifier:    notifier,
		logger:      logger,
	}
}

// Request создаёт заявку студента к тьютору
func (s *ConnectionService) Request(ctx context.Context, actor model.Actor, in RequestConnectionInput) (*model.Connection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	tutorID := uuid.MustParse(in.TutorID)
	if tutorID == actor.ID {
		return nil, badRequest("You cannot connect with yourself")
	}

	conn := &model.Connection{
		StudentID: actor.ID,
		TutorID:   tutorID,
		Status:    model.ConnectionStatusPending,
	}

	if err := s.connections.Create(ctx, conn); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, conflict("Request already sent")
		case errors.Is(err, repository.ErrReferenceMissing):
			return nil, notFound("Tutor not found")
		}
		return nil, failure(s.logger, "create connection", err)
	}

	s.logger.Info("Connection requested",
		zap.String("connection_id", conn.ID.String()),
		zap.String("student_id", conn.StudentID.String()),
		zap.String("tutor_id", conn.TutorID.String()),
	)

	notify(ctx, s.logger, "connection.requested", func(ctx context.Context) error {
		return s.notifier.ConnectionRequested(ctx, conn)
	})

	return conn, nil
}

// Decide принимает или отклоняет pending-заявку, адресованную тьютору.
// При принятии в той же транзакции создаётся первое сообщение чата.
func (s *ConnectionService) Decide(ctx context.Context, actor model.Actor, in DecideConnectionInput) (*model.Connection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	id := uuid.MustParse(in.ConnectionID)
	status := model.ConnectionStatus(in.Status)

	var decided *model.Connection
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		conn, err := s.connections.Decide(ctx, id, actor.ID, status)
		if err != nil {
			return err
		}
		if conn == nil {
			return notFound("Connection not found or unauthorized")
		}

		if conn.IsAccepted() {
			ref := model.ThreadRef{Kind: model.ThreadConnection, ID: conn.ID}
			seed := model.NewThreadMessage(ref, actor.ID, model.ConnectionAcceptedMessage)
			if err := s.messages.Create(ctx, seed); err != nil {
				return err
			}
		}

		decided = conn
		return nil
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, failure(s.logger, "decide connection", err, zap.String("connection_id", id.String()))
	}

	s.logger.Info("Connection decided",
		zap.String("connection_id", decided.ID.String()),
		zap.String("status", string(decided.Status)),
	)

	notify(ctx, s.logger, "connection.decided", func(ctx context.Context) error {
		return s.notifier.ConnectionDecided(ctx, decided)
	})

	return decided, nil
}

// List заявки к тьютору с указанным статусом, по умолчанию PENDING
func (s *ConnectionService) List(ctx context.Context, actor model.Actor, status string) ([]*model.Connection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	st := model.ConnectionStatusPending
	if status != "" {
		st = model.ConnectionStatus(status)
		if !st.Valid() {
			return nil, badRequest("Invalid status")
		}
	}

	connections, err := s.connections.ListByTutor(ctx, actor.ID, st)
	if err != nil {
		return nil, failure(s.logger, "list connections", err)
	}
	return connections, nil
}
