package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateBookingInput struct {
	TutorID    *string  `json:"tutorId" validate:"omitnil,uuid"`
	StudentIDs []string `json:"studentIds" validate:"omitempty,dive,uuid"`
	Subject    string   `json:"subject" validate:"required,min=2"`
	Topic      *string  `json:"topic"`
	Date       string   `json:"date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Duration   int      `json:"duration" validate:"booking_duration"`
	Location   *string  `json:"location"`
}

type UpdateBookingStatusInput struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED CANCELLED"`
}

// WeekRenderer рисует недельное расписание
type WeekRenderer interface {
	RenderWeek(weekStart time.Time, viewerID uuid.UUID, bookings []*model.Booking) ([]byte, error)
}

type BookingService struct {
	tx       Transactor
	bookings BookingStore
	renderer WeekRenderer
	notifier Notifier
	logger   *zap.Logger
	now      Clock
}

func NewBookingService(
	tx Transactor,
	bookings BookingStore,
	renderer WeekRenderer,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:       tx,
		bookings: bookings,
		renderer: renderer,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create создаёт занятия.
// Если переданы studentIds, тьютор (actor) назначает по подтверждённому занятию каждому студенту
// в одной транзакции: N id дают ровно N занятий или ни одного, повторы отклоняются.
// Иначе студент (actor) запрашивает занятие у tutorId.
func (s *BookingService) Create(ctx context.Context, actor model.Actor, in CreateBookingInput) ([]*model.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.Subject = strings.TrimSpace(in.Subject)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	date, err := time.Parse(time.RFC3339, in.Date)
	if err != nil {
		return nil, invalidFields(map[string][]string{"date": {"Invalid datetime"}})
	}

	template := model.Booking{
		Subject:  in.Subject,
		Topic:    in.Topic,
		Date:     date,
		Duration: in.Duration,
		Location: model.DefaultBookingLocation,
	}
	if in.Location != nil && strings.TrimSpace(*in.Location) != "" {
		template.Location = strings.TrimSpace(*in.Location)
	}

	var bookings []*model.Booking
	switch {
	case len(in.StudentIDs) > 0:
		bookings, err = s.scheduleForStudents(ctx, actor, template, in.StudentIDs)
	case in.TutorID != nil:
		bookings, err = s.requestFromTutor(ctx, actor, template, uuid.MustParse(*in.TutorID))
	default:
		return nil, badRequest("Missing tutorId or studentIds")
	}
	if err != nil {
		return nil, err
	}

	notify(ctx, s.logger, "booking.created", func(ctx context.Context) error {
		return s.notifier.BookingsCreated(ctx, bookings)
	})

	return bookings, nil
}

func (s *BookingService) scheduleForStudents(ctx context.Context, actor model.Actor, template model.Booking, rawIDs []string) ([]*model.Booking, error) {
	studentIDs := make([]uuid.UUID, 0, len(rawIDs))
	seen := make(map[uuid.UUID]struct{}, len(rawIDs))
	for _, raw := range rawIDs {
		id := uuid.MustParse(raw)
		if id == actor.ID {
			return nil, badRequest("You cannot book a session with yourself")
		}
		if _, dup := seen[id]; dup {
			return nil, invalidFields(map[string][]string{"studentIds": {"Duplicate student id: " + raw}})
		}
		seen[id] = struct{}{}
		studentIDs = append(studentIDs, id)
	}

	bookings := make([]*model.Booking, 0, len(studentIDs))
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, studentID := range studentIDs {
			b := template
			b.StudentID = studentID
			b.TutorID = actor.ID
			b.Status = model.BookingStatusConfirmed

			if err := s.bookings.Create(ctx, &b); err != nil {
				if errors.Is(err, repository.ErrReferenceMissing) {
					return badRequest(fmt.Sprintf("Unknown student: %s", studentID))
				}
				return err
			}
			bookings = append(bookings, &b)
		}
		return nil
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, failure(s.logger, "create bookings", err, zap.String("tutor_id", actor.ID.String()))
	}

	s.logger.Info("Sessions scheduled",
		zap.String("tutor_id", actor.ID.String()),
		zap.Int("count", len(bookings)),
		zap.Time("date", template.Date),
	)

	return bookings, nil
}

func (s *BookingService) requestFromTutor(ctx context.Context, actor model.Actor, template model.Booking, tutorID uuid.UUID) ([]*model.Booking, error) {
	if tutorID == actor.ID {
		return nil, badRequest("You cannot book a session with yourself")
	}

	b := template
	b.StudentID = actor.ID
	b.TutorID = tutorID
	b.Status = model.BookingStatusPending

	if err := s.bookings.Create(ctx, &b); err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, notFound("Tutor not found")
		}
		return nil, failure(s.logger, "create booking", err, zap.String("student_id", actor.ID.String()))
	}

	s.logger.Info("Session requested",
		zap.String("booking_id", b.ID.String()),
		zap.String("student_id", b.StudentID.String()),
		zap.String("tutor_id", b.TutorID.String()),
	)

	return []*model.Booking{&b}, nil
}

// List занятия, где actor студент или тьютор
func (s *BookingService) List(ctx context.Context, actor model.Actor, status string) ([]*model.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var filter *model.BookingStatus
	if status != "" {
		st := model.BookingStatus(status)
		if !st.Valid() {
			return nil, badRequest("Invalid status")
		}
		filter = &st
	}

	bookings, err := s.bookings.ListForParticipant(ctx, actor.ID, filter)
	if err != nil {
		return nil, failure(s.logger, "list bookings", err)
	}
	return bookings, nil
}

// UpdateStatus подтверждает или отменяет занятие
func (s *BookingService) UpdateStatus(ctx context.Context, actor model.Actor, bookingID uuid.UUID, in UpdateBookingStatusInput) (*model.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	target := model.BookingStatus(in.Status)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, failure(s.logger, "get booking", err)
	}
	if booking == nil || !booking.HasParticipant(actor.ID) {
		return nil, notFound("Booking not found")
	}

	if target == model.BookingStatusConfirmed && booking.TutorID != actor.ID {
		return nil, badRequest("Only the tutor can confirm a booking")
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, model.TransitionSources(target), target)
	if err != nil {
		return nil, failure(s.logger, "update booking status", err, zap.String("booking_id", bookingID.String()))
	}
	if !updated {
		return nil, badRequest(fmt.Sprintf("Booking cannot move from %s to %s", booking.Status, target))
	}

	booking.Status = target
	s.logger.Info("Booking status changed",
		zap.String("booking_id", bookingID.String()),
		zap.String("status", string(target)),
		zap.String("by", actor.ID.String()),
	)

	notify(ctx, s.logger, "booking.status_changed", func(ctx context.Context) error {
		return s.notifier.BookingStatusChanged(ctx, booking)
	})

	return booking, nil
}

// CompleteElapsed завершает прошедшие подтверждённые занятия
func (s *BookingService) CompleteElapsed(ctx context.Context) (int64, error) {
	completed, err := s.bookings.CompleteElapsed(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("complete elapsed bookings: %w", err)
	}
	return completed, nil
}

// WeekImage PNG с занятиями actor на неделю, начинающуюся в понедельник weekOf
func (s *BookingService) WeekImage(ctx context.Context, actor model.Actor, weekOf time.Time) ([]byte, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if weekOf.IsZero() {
		weekOf = s.now()
	}
	start := WeekStart(weekOf)

	bookings, err := s.bookings.ListBetween(ctx, actor.ID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return nil, failure(s.logger, "list week bookings", err)
	}

	img, err := s.renderer.RenderWeek(start, actor.ID, bookings)
	if err != nil {
		return nil, failure(s.logger, "render week", err)
	}
	return img, nil
}

// WeekStart понедельник 00:00 недели, в которую попадает t
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}
