package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectConnectionRequested  = "connection.requested"
	SubjectConnectionDecided    = "connection.decided"
	SubjectBookingCreated       = "booking.created"
	SubjectBookingStatusChanged = "booking.status_changed"
)

// Conn часть *nats.Conn, нужная издателю
type Conn interface {
	Publish(subject string, data []byte) error
}

type ConnectionEvent struct {
	EventType    string    `json:"event_type"`
	ConnectionID uuid.UUID `json:"connection_id"`
	StudentID    uuid.UUID `json:"student_id"`
	TutorID      uuid.UUID `json:"tutor_id"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type BookingEvent struct {
	EventType  string    `json:"event_type"`
	BookingID  uuid.UUID `json:"booking_id"`
	StudentID  uuid.UUID `json:"student_id"`
	TutorID    uuid.UUID `json:"tutor_id"`
	Subject    string    `json:"subject"`
	Date       time.Time `json:"date"`
	Duration   int       `json:"duration"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NatsPublisher публикует доменные события в NATS
type NatsPublisher struct {
	conn   Conn
	logger *zap.Logger
	now    func() time.Time
}

func NewNatsPublisher(conn Conn, logger *zap.Logger) *NatsPublisher {
	return &NatsPublisher{conn: conn, logger: logger, now: time.Now}
}

// Connect подключается к NATS по url
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("peer-tutoring"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

func (p *NatsPublisher) publish(subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("Event published", zap.String("subject", subject))
	return nil
}

func (p *NatsPublisher) connectionEvent(subject string, c *model.Connection) ConnectionEvent {
	return ConnectionEvent{
		EventType:    subject,
		ConnectionID: c.ID,
		StudentID:    c.StudentID,
		TutorID:      c.TutorID,
		Status:       string(c.Status),
		OccurredAt:   p.now().UTC(),
	}
}

func (p *NatsPublisher) bookingEvent(subject string, b *model.Booking) BookingEvent {
	return BookingEvent{
		EventType:  subject,
		BookingID:  b.ID,
		StudentID:  b.StudentID,
		TutorID:    b.TutorID,
		Subject:    b.Subject,
		Date:       b.Date,
		Duration:   b.Duration,
		Status:     string(b.Status),
		OccurredAt: p.now().UTC(),
	}
}

func (p *NatsPublisher) ConnectionRequested(_ context.Context, c *model.Connection) error {
	return p.publish(SubjectConnectionRequested, p.connectionEvent(SubjectConnectionRequested, c))
}

func (p *NatsPublisher) ConnectionDecided(_ context.Context, c *model.Connection) error {
	return p.publish(SubjectConnectionDecided, p.connectionEvent(SubjectConnectionDecided, c))
}

// BookingsCreated публикует по событию на каждое занятие
func (p *NatsPublisher) BookingsCreated(_ context.Context, bookings []*model.Booking) error {
	for _, b := range bookings {
		if err := p.publish(SubjectBookingCreated, p.bookingEvent(SubjectBookingCreated, b)); err != nil {
			return err
		}
	}
	return nil
}

func (p *NatsPublisher) BookingStatusChanged(_ context.Context, b *model.Booking) error {
	return p.publish(SubjectBookingStatusChanged, p.bookingEvent(SubjectBookingStatusChanged, b))
}
