// Package testutils содержит in-memory реализации хранилищ для тестов сервисов.
package testutils

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository"
	"github.com/google/uuid"
)

// ErrInjected ошибка, подставляемая через Fail и FailBookingInsertAt
var ErrInjected = errors.New("injected store failure")

type state struct {
	accounts    map[uuid.UUID]model.Account
	connections map[uuid.UUID]model.Connection
	bookings    map[uuid.UUID]model.Booking
	messages    []model.Message
}

func (st state) clone() state {
	c := state{
		accounts:    make(map[uuid.UUID]model.Account, len(st.accounts)),
		connections: make(map[uuid.UUID]model.Connection, len(st.connections)),
		bookings:    make(map[uuid.UUID]model.Booking, len(st.bookings)),
		messages:    slices.Clone(st.messages),
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.connections {
		c.connections[k] = v
	}
	for k, v := range st.bookings {
		c.bookings[k] = v
	}
	return c
}

// Store общее in-memory состояние. Доступ к таблицам через Accounts(), Connections(),
// Bookings() и Messages(); InTx откатывает изменения, если fn вернула ошибку.
type Store struct {
	mu    sync.Mutex
	st    state
	clock time.Time
	fail  map[string]error

	// FailBookingInsertAt ломает N-ю (с 1) вставку бронирования
	FailBookingInsertAt int
	bookingInserts      int
	// Commits и Rollbacks считают завершённые транзакции
	Commits   int
	Rollbacks int
}

type txKey struct{}

func NewStore() *Store {
	return &Store{
		st:    state{}.clone(),
		clock: time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC),
		fail:  make(map[string]error),
	}
}

// Fail заставляет операцию op (например "bookings.ListThreads") возвращать err
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *Store) injected(op string) error {
	if err, ok := s.fail[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// tick монотонное время для created_at/updated_at
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// InTx выполняет fn; при ошибке состояние восстанавливается из снимка
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

// AddAccount кладёт аккаунт напрямую, минуя сервис
func (s *Store) AddAccount(a model.Account) *model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Role == "" {
		a.Role = model.RoleStudent
	}
	if a.Email == "" {
		a.Email = a.ID.String() + "@example.com"
	}
	a.CreatedAt = s.tick()
	a.UpdatedAt = a.CreatedAt
	s.st.accounts[a.ID] = a
	return &a
}

// AddConnection кладёт связь напрямую
func (s *Store) AddConnection(c model.Connection) *model.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.tick()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.st.connections[c.ID] = c
	return &c
}

// AddBooking кладёт бронирование напрямую
func (s *Store) AddBooking(b model.Booking) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Location == "" {
		b.Location = model.DefaultBookingLocation
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.tick()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	b.Student, b.Tutor = nil, nil
	s.st.bookings[b.ID] = b
	return &b
}

// AddMessage кладёт сообщение напрямую; пустой CreatedAt заполняется часами стора
func (s *Store) AddMessage(m model.Message) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.tick()
	}
	s.st.messages = append(s.st.messages, m)
	return &m
}

// Booking снимок бронирования
func (s *Store) Booking(id uuid.UUID) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.bookings[id]
	return b, ok
}

// Connection снимок связи
func (s *Store) Connection(id uuid.UUID) (model.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.connections[id]
	return c, ok
}

// BookingCount число бронирований
func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.bookings)
}

// MessagesOf сообщения треда в порядке вставки
func (s *Store) MessagesOf(ref model.ThreadRef) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.st.messages {
		if m.Thread() == ref {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) summary(id uuid.UUID) *model.AccountSummary {
	a, ok := s.st.accounts[id]
	if !ok {
		return &model.AccountSummary{ID: id}
	}
	sum := a.Summary()
	return &sum
}

func (s *Store) lastMessage(ref model.ThreadRef) *model.Message {
	var last *model.Message
	for i := range s.st.messages {
		m := s.st.messages[i]
		if m.Thread() != ref {
			continue
		}
		if last == nil || !m.CreatedAt.Before(last.CreatedAt) {
			cp := m
			last = &cp
		}
	}
	return last
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Accounts реализация service.AccountStore
type Accounts struct{ s *Store }

func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

func (r *Accounts) Create(_ context.Context, account *model.Account) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("accounts.Create"); err != nil {
		return err
	}

	email := strings.ToLower(account.Email)
	for _, a := range s.st.accounts {
		if a.Email == email {
			return fmt.Errorf("create account: %w", repository.ErrDuplicate)
		}
	}

	account.ID = uuid.New()
	account.Email = email
	account.CreatedAt = s.tick()
	account.UpdatedAt = account.CreatedAt
	s.st.accounts[account.ID] = *account
	return nil
}

func (r *Accounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("accounts.GetByID"); err != nil {
		return nil, err
	}
	a, ok := s.st.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *Accounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("accounts.GetByEmail"); err != nil {
		return nil, err
	}
	for _, a := range s.st.accounts {
		if a.Email == strings.ToLower(email) {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *Accounts) UpdateProfile(_ context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("accounts.UpdateProfile"); err != nil {
		return nil, err
	}
	a, ok := s.st.accounts[id]
	if !ok {
		return nil, nil
	}
	if upd.TelegramChatID != nil {
		for otherID, other := range s.st.accounts {
			if otherID != id && other.TelegramChatID != nil && *other.TelegramChatID == *upd.TelegramChatID {
				return nil, fmt.Errorf("update profile: %w", repository.ErrDuplicate)
			}
		}
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Institution != nil {
		a.Institution = *upd.Institution
	}
	if upd.Major != nil {
		a.Major = *upd.Major
	}
	if upd.Bio != nil {
		a.Bio = *upd.Bio
	}
	if upd.HourlyRate != nil {
		a.HourlyRate = *upd.HourlyRate
	}
	if upd.Subjects != nil {
		a.Subjects = *upd.Subjects
	}
	if upd.TelegramChatID != nil {
		chatID := *upd.TelegramChatID
		a.TelegramChatID = &chatID
	}
	a.UpdatedAt = s.tick()
	s.st.accounts[id] = a
	return &a, nil
}

func (r *Accounts) PromoteToTutor(_ context.Context, id uuid.UUID, app model.TutorApplication) (*model.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("accounts.PromoteToTutor"); err != nil {
		return nil, err
	}
	a, ok := s.st.accounts[id]
	if !ok {
		return nil, nil
	}
	a.Role = model.RoleTutor
	a.Major = app.Major
	a.Subjects = strings.Join(app.Subjects, ",")
	a.HourlyRate = app.HourlyRate
	a.UpdatedAt = s.tick()
	s.st.accounts[id] = a
	return &a, nil
}

func (r *Accounts) SearchTutors(_ context.Context, viewer *uuid.UUID, search string, limit int) ([]*model.TutorListing, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("accounts.SearchTutors"); err != nil {
		return nil, err
	}

	search = strings.TrimSpace(search)
	tutors := make([]*model.TutorListing, 0)
	for _, a := range s.st.accounts {
		if !a.Role.Teaches() || (viewer != nil && a.ID == *viewer) {
			continue
		}
		if search != "" && !containsFold(a.Name, search) && !containsFold(a.Major, search) && !containsFold(a.Subjects, search) {
			continue
		}
		t := &model.TutorListing{
			ID: a.ID, Name: a.Name, Image: a.Image, Institution: a.Institution, Major: a.Major,
			Bio: a.Bio, HourlyRate: a.HourlyRate, Subjects: a.Subjects, Rating: a.Rating, TotalReviews: a.TotalReviews,
		}
		if viewer != nil {
			for _, c := range s.st.connections {
				if c.StudentID == *viewer && c.TutorID == a.ID {
					st := c.Status
					t.ConnectionStatus = &st
				}
			}
		}
		tutors = append(tutors, t)
	}

	slices.SortFunc(tutors, func(a, b *model.TutorListing) int {
		if a.Rating != b.Rating {
			if a.Rating > b.Rating {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(tutors) > limit {
		tutors = tutors[:limit]
	}
	return tutors, nil
}

// Connections реализация service.ConnectionStore
type Connections struct{ s *Store }

func (s *Store) Connections() *Connections { return &Connections{s: s} }

func (r *Connections) Create(_ context.Context, conn *model.Connection) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("connections.Create"); err != nil {
		return err
	}

	for _, c := range s.st.connections {
		if c.StudentID == conn.StudentID && c.TutorID == conn.TutorID {
			return fmt.Errorf("create connection: %w", repository.ErrDuplicate)
		}
	}
	if _, ok := s.st.accounts[conn.StudentID]; !ok {
		return fmt.Errorf("create connection: %w", repository.ErrReferenceMissing)
	}
	if _, ok := s.st.accounts[conn.TutorID]; !ok {
		return fmt.Errorf("create connection: %w", repository.ErrReferenceMissing)
	}

	conn.ID = uuid.New()
	conn.CreatedAt = s.tick()
	conn.UpdatedAt = conn.CreatedAt
	stored := *conn
	stored.Student, stored.Tutor = nil, nil
	s.st.connections[conn.ID] = stored
	return nil
}

func (r *Connections) Decide(_ context.Context, id, tutorID uuid.UUID, status model.ConnectionStatus) (*model.Connection, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("connections.Decide"); err != nil {
		return nil, err
	}
	c, ok := s.st.connections[id]
	if !ok || c.TutorID != tutorID || c.Status != model.ConnectionStatusPending {
		return nil, nil
	}
	c.Status = status
	c.UpdatedAt = s.tick()
	s.st.connections[id] = c
	return &c, nil
}

func (r *Connections) ListByTutor(_ context.Context, tutorID uuid.UUID, status model.ConnectionStatus) ([]*model.Connection, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("connections.ListByTutor"); err != nil {
		return nil, err
	}
	out := make([]*model.Connection, 0)
	for _, c := range s.st.connections {
		if c.TutorID == tutorID && c.Status == status {
			cp := c
			cp.Student = s.summary(c.StudentID)
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.Connection) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *Connections) CountPendingByTutor(_ context.Context, tutorID uuid.UUID) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("connections.CountPendingByTutor"); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range s.st.connections {
		if c.TutorID == tutorID && c.IsPending() {
			n++
		}
	}
	return n, nil
}

func (r *Connections) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("connections.Exists"); err != nil {
		return false, err
	}
	_, ok := s.st.connections[id]
	return ok, nil
}

func (r *Connections) Touch(_ context.Context, id, participantID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("connections.Touch"); err != nil {
		return false, err
	}
	c, ok := s.st.connections[id]
	if !ok || !c.IsAccepted() || (c.StudentID != participantID && c.TutorID != participantID) {
		return false, nil
	}
	c.UpdatedAt = s.tick()
	s.st.connections[id] = c
	return true, nil
}

func (r *Connections) ListThreads(_ context.Context, userID uuid.UUID) ([]*model.ThreadSummary, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("connections.ListThreads"); err != nil {
		return nil, err
	}
	out := make([]*model.ThreadSummary, 0)
	for _, c := range s.st.connections {
		if !c.IsAccepted() || (c.StudentID != userID && c.TutorID != userID) {
			continue
		}
		ref := model.ThreadRef{Kind: model.ThreadConnection, ID: c.ID}
		out = append(out, &model.ThreadSummary{
			Ref:        ref,
			Student:    *s.summary(c.StudentID),
			Tutor:      *s.summary(c.TutorID),
			ActivityAt: c.UpdatedAt,
			Last:       s.lastMessage(ref),
		})
	}
	return out, nil
}

// Bookings реализация service.BookingStore
type Bookings struct{ s *Store }

func (s *Store) Bookings() *Bookings { return &Bookings{s: s} }

func (s *Store) withParties(b model.Booking) *model.Booking {
	student, tutor := s.summary(b.StudentID), s.summary(b.TutorID)
	b.Student = &model.AccountSummary{ID: student.ID, Name: student.Name, Image: student.Image, Email: s.st.accounts[b.StudentID].Email}
	b.Tutor = &model.AccountSummary{ID: tutor.ID, Name: tutor.Name, Image: tutor.Image}
	return &b
}

func (r *Bookings) Create(_ context.Context, booking *model.Booking) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.Create"); err != nil {
		return err
	}

	s.bookingInserts++
	if s.FailBookingInsertAt > 0 && s.bookingInserts == s.FailBookingInsertAt {
		return fmt.Errorf("create booking: %w", ErrInjected)
	}
	if _, ok := s.st.accounts[booking.StudentID]; !ok {
		return fmt.Errorf("create booking: %w", repository.ErrReferenceMissing)
	}
	if _, ok := s.st.accounts[booking.TutorID]; !ok {
		return fmt.Errorf("create booking: %w", repository.ErrReferenceMissing)
	}

	booking.ID = uuid.New()
	booking.CreatedAt = s.tick()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	stored.Student, stored.Tutor = nil, nil
	s.st.bookings[booking.ID] = stored
	return nil
}

func (r *Bookings) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.GetByID"); err != nil {
		return nil, err
	}
	b, ok := s.st.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) filterBookings(keep func(b model.Booking) bool, less func(a, b *model.Booking) int, limit int) []*model.Booking {
	out := make([]*model.Booking, 0)
	for _, b := range s.st.bookings {
		if keep(b) {
			out = append(out, s.withParties(b))
		}
	}
	slices.SortStableFunc(out, less)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func dateAsc(a, b *model.Booking) int  { return a.Date.Compare(b.Date) }
func dateDesc(a, b *model.Booking) int { return b.Date.Compare(a.Date) }

func (r *Bookings) ListForParticipant(_ context.Context, userID uuid.UUID, status *model.BookingStatus) ([]*model.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.ListForParticipant"); err != nil {
		return nil, err
	}
	return s.filterBookings(func(b model.Booking) bool {
		return b.HasParticipant(userID) && (status == nil || b.Status == *status)
	}, dateAsc, 0), nil
}

func (r *Bookings) ListUpcomingAsStudent(_ context.Context, studentID uuid.UUID, from time.Time, limit int) ([]*model.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.ListUpcomingAsStudent"); err != nil {
		return nil, err
	}
	return s.filterBookings(func(b model.Booking) bool {
		return b.StudentID == studentID && !b.Date.Before(from) && b.Status != model.BookingStatusCancelled
	}, dateAsc, limit), nil
}

func (r *Bookings) ListUpcomingAsTutor(_ context.Context, tutorID uuid.UUID, from time.Time, limit int) ([]*model.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.ListUpcomingAsTutor"); err != nil {
		return nil, err
	}
	return s.filterBookings(func(b model.Booking) bool {
		return b.TutorID == tutorID && !b.Date.Before(from) && b.Status != model.BookingStatusCancelled
	}, dateAsc, limit), nil
}

func (r *Bookings) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*model.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.ListBetween"); err != nil {
		return nil, err
	}
	return s.filterBookings(func(b model.Booking) bool {
		return b.HasParticipant(userID) && !b.Date.Before(from) && b.Date.Before(to) && b.Status != model.BookingStatusCancelled
	}, dateAsc, 0), nil
}

func (r *Bookings) ListForAnalytics(_ context.Context, tutorID uuid.UUID, search string) ([]*model.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.ListForAnalytics"); err != nil {
		return nil, err
	}
	out := s.filterBookings(func(b model.Booking) bool {
		if b.TutorID != tutorID {
			return false
		}
		if b.Status != model.BookingStatusConfirmed && b.Status != model.BookingStatusCompleted {
			return false
		}
		return search == "" || containsFold(s.st.accounts[b.StudentID].Name, search)
	}, dateDesc, 0)
	for _, b := range out {
		b.Student = s.summary(b.StudentID)
		b.Tutor = nil
	}
	return out, nil
}

func (r *Bookings) UpdateStatus(_ context.Context, id uuid.UUID, from []model.BookingStatus, to model.BookingStatus) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.UpdateStatus"); err != nil {
		return false, err
	}
	b, ok := s.st.bookings[id]
	if !ok || !slices.Contains(from, b.Status) {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = s.tick()
	s.st.bookings[id] = b
	return true, nil
}

func (r *Bookings) CompleteElapsed(_ context.Context, now time.Time) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.CompleteElapsed"); err != nil {
		return 0, err
	}
	var n int64
	for id, b := range s.st.bookings {
		if b.Status == model.BookingStatusConfirmed && !b.EndsAt().After(now) {
			b.Status = model.BookingStatusCompleted
			s.st.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (r *Bookings) Touch(_ context.Context, id, participantID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.Touch"); err != nil {
		return false, err
	}
	b, ok := s.st.bookings[id]
	if !ok || !b.HasParticipant(participantID) {
		return false, nil
	}
	b.UpdatedAt = s.tick()
	s.st.bookings[id] = b
	return true, nil
}

func (r *Bookings) ListThreads(_ context.Context, userID uuid.UUID) ([]*model.ThreadSummary, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("bookings.ListThreads"); err != nil {
		return nil, err
	}
	out := make([]*model.ThreadSummary, 0)
	for _, b := range s.st.bookings {
		if !b.HasParticipant(userID) {
			continue
		}
		ref := model.ThreadRef{Kind: model.ThreadBooking, ID: b.ID}
		out = append(out, &model.ThreadSummary{
			Ref:        ref,
			Student:    *s.summary(b.StudentID),
			Tutor:      *s.summary(b.TutorID),
			Subject:    b.Subject,
			ActivityAt: b.CreatedAt,
			Last:       s.lastMessage(ref),
		})
	}
	return out, nil
}

// Messages реализация service.MessageStore
type Messages struct{ s *Store }

func (s *Store) Messages() *Messages { return &Messages{s: s} }

func (s *Store) participates(ref model.ThreadRef, userID uuid.UUID) (exists, member bool) {
	if ref.Kind == model.ThreadBooking {
		b, ok := s.st.bookings[ref.ID]
		return ok, ok && b.HasParticipant(userID)
	}
	c, ok := s.st.connections[ref.ID]
	return ok, ok && (c.StudentID == userID || c.TutorID == userID)
}

func (r *Messages) Create(_ context.Context, msg *model.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("messages.Create"); err != nil {
		return err
	}
	if exists, _ := s.participates(msg.Thread(), msg.SenderID); !exists {
		return fmt.Errorf("create message: %w", repository.ErrReferenceMissing)
	}
	msg.ID = uuid.New()
	msg.CreatedAt = s.tick()
	s.st.messages = append(s.st.messages, *msg)
	return nil
}

func (r *Messages) ListThread(_ context.Context, ref model.ThreadRef, participantID uuid.UUID) ([]*model.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("messages.ListThread"); err != nil {
		return nil, err
	}
	out := make([]*model.Message, 0)
	if _, member := s.participates(ref, participantID); !member {
		return out, nil
	}
	for _, m := range s.st.messages {
		if m.Thread() == ref {
			cp := m
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *model.Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *Messages) MarkRead(_ context.Context, ref model.ThreadRef, readerID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("messages.MarkRead"); err != nil {
		return 0, err
	}
	if _, member := s.participates(ref, readerID); !member {
		return 0, nil
	}
	var n int64
	for i := range s.st.messages {
		m := &s.st.messages[i]
		if m.Thread() == ref && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}
