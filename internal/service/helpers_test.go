package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (n *recordingNotifier) record(event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) ConnectionRequested(context.Context, *model.Connection) error {
	return n.record("connection.requested")
}

func (n *recordingNotifier) ConnectionDecided(context.Context, *model.Connection) error {
	return n.record("connection.decided")
}

func (n *recordingNotifier) BookingsCreated(context.Context, []*model.Booking) error {
	return n.record("booking.created")
}

func (n *recordingNotifier) BookingStatusChanged(context.Context, *model.Booking) error {
	return n.record("booking.status_changed")
}

type stubTokens struct{}

func (stubTokens) Issue(a *model.Account) (string, error) {
	return "token-" + a.ID.String(), nil
}

type stubRenderer struct {
	start    time.Time
	bookings []*model.Booking
}

func (r *stubRenderer) RenderWeek(weekStart time.Time, _ uuid.UUID, bookings []*model.Booking) ([]byte, error) {
	r.start = weekStart
	r.bookings = bookings
	return []byte("png"), nil
}

type fixture struct {
	store         *testutils.Store
	notifier      *recordingNotifier
	renderer      *stubRenderer
	accounts      *AccountService
	connections   *ConnectionService
	bookings      *BookingService
	conversations *ConversationService
	analytics     *AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutils.NewStore()
	notifier := &recordingNotifier{}
	renderer := &stubRenderer{}
	logger := zap.NewNop()

	return &fixture{
		store:         store,
		notifier:      notifier,
		renderer:      renderer,
		accounts:      NewAccountService(store.Accounts(), store.Bookings(), store.Connections(), stubTokens{}, logger),
		connections:   NewConnectionService(store, store.Connections(), store.Messages(), notifier, logger),
		bookings:      NewBookingService(store, store.Bookings(), renderer, notifier, logger),
		conversations: NewConversationService(store, store.Bookings(), store.Connections(), store.Messages(), logger),
		analytics:     NewAnalyticsService(store.Accounts(), store.Bookings(), logger),
	}
}

func (f *fixture) student(name string) model.Actor {
	a := f.store.AddAccount(model.Account{Name: name, Role: model.RoleStudent})
	return model.Actor{ID: a.ID, Role: a.Role}
}

func (f *fixture) tutor(name string, rate float64) model.Actor {
	a := f.store.AddAccount(model.Account{Name: name, Role: model.RoleTutor, HourlyRate: rate})
	return model.Actor{ID: a.ID, Role: a.Role}
}

func requireKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected *service.Error, got %T: %v", err, err)
	require.Equal(t, kind, svcErr.Kind, "error: %v", err)
	return svcErr
}

func ptr[T any](v T) *T {
	return &v
}
