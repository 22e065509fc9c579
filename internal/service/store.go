package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/google/uuid"
)

// AccountStore хранилище аккаунтов (*repository.AccountRepository)
type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error)
	PromoteToTutor(ctx context.Context, id uuid.UUID, app model.TutorApplication) (*model.Account, error)
	SearchTutors(ctx context.Context, viewer *uuid.UUID, search string, limit int) ([]*model.TutorListing, error)
}

// ConnectionStore хранилище связей студент-тьютор (*repository.ConnectionRepository)
type ConnectionStore interface {
	Create(ctx context.Context, conn *model.Connection) error
	Decide(ctx context.Context, id, tutorID uuid.UUID, status model.ConnectionStatus) (*model.Connection, error)
	ListByTutor(ctx context.Context, tutorID uuid.UUID, status model.ConnectionStatus) ([]*model.Connection, error)
	CountPendingByTutor(ctx context.Context, tutorID uuid.UUID) (int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Touch(ctx context.Context, id, participantID uuid.UUID) (bool, error)
	ListThreads(ctx context.Context, userID uuid.UUID) ([]*model.ThreadSummary, error)
}

// BookingStore хранилище бронирований (*repository.BookingRepository)
type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListForParticipant(ctx context.Context, userID uuid.UUID, status *model.BookingStatus) ([]*model.Booking, error)
	ListUpcomingAsStudent(ctx context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*model.Booking, error)
	ListUpcomingAsTutor(ctx context.Context, tutorID uuid.UUID, from time.Time, limit int) ([]*model.Booking, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.Booking, error)
	ListForAnalytics(ctx context.Context, tutorID uuid.UUID, search string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []model.BookingStatus, to model.BookingStatus) (bool, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
	Touch(ctx context.Context, id, participantID uuid.UUID) (bool, error)
	ListThreads(ctx context.Context, userID uuid.UUID) ([]*model.ThreadSummary, error)
}

// MessageStore хранилище сообщений (*repository.MessageRepository)
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	ListThread(ctx context.Context, ref model.ThreadRef, participantID uuid.UUID) ([]*model.Message, error)
	MarkRead(ctx context.Context, ref model.ThreadRef, readerID uuid.UUID) (int64, error)
}

// Transactor выполняет fn атомарно (*base.TxManager)
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier получает доменные события после успешной записи.
// Ошибки доставки не откатывают операцию.
type Notifier interface {
	ConnectionRequested(ctx context.Context, conn *model.Connection) error
	ConnectionDecided(ctx context.Context, conn *model.Connection) error
	BookingsCreated(ctx context.Context, bookings []*model.Booking) error
	BookingStatusChanged(ctx context.Context, booking *model.Booking) error
}

// NopNotifier ничего не отправляет
type NopNotifier struct{}

func (NopNotifier) ConnectionRequested(context.Context, *model.Connection) error { return nil }
func (NopNotifier) ConnectionDecided(context.Context, *model.Connection) error   { return nil }
func (NopNotifier) BookingsCreated(context.Context, []*model.Booking) error      { return nil }
func (NopNotifier) BookingStatusChanged(context.Context, *model.Booking) error   { return nil }

// Clock источник текущего времени
type Clock func() time.Time
