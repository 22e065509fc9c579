package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionService_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending connection", func(t *testing.T) {
		f := newFixture(t)
		student, tutor := f.student("Ann"), f.tutor("Bob", 20)

		conn, err := f.connections.Request(ctx, student, RequestConnectionInput{TutorID: tutor.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, model.ConnectionStatusPending, conn.Status)
		assert.Equal(t, student.ID, conn.StudentID)
		assert.Equal(t, tutor.ID, conn.TutorID)
		assert.Equal(t, []string{"connection.requested"}, f.notifier.events)
	})

	t.Run("second request conflicts", func(t *testing.T) {
		f := newFixture(t)
		student, tutor := f.student("Ann"), f.tutor("Bob", 20)

		_, err := f.connections.Request(ctx, student, RequestConnectionInput{TutorID: tutor.ID.String()})
		require.NoError(t, err)

		_, err = f.connections.Request(ctx, student, RequestConnectionInput{TutorID: tutor.ID.String()})
		svcErr := requireKind(t, err, KindConflict)
		assert.Equal(t, "Request already sent", svcErr.Message)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.connections.Request(ctx, model.Actor{}, RequestConnectionInput{TutorID: uuid.NewString()})
		requireKind(t, err, KindUnauthorized)
	})

	t.Run("missing tutor id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.connections.Request(ctx, f.student("Ann"), RequestConnectionInput{})
		svcErr := requireKind(t, err, KindBadRequest)
		assert.Contains(t, svcErr.Fields, "tutorId")
	})

	t.Run("malformed tutor id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.connections.Request(ctx, f.student("Ann"), RequestConnectionInput{TutorID: "not-a-uuid"})
		requireKind(t, err, KindBadRequest)
	})

	t.Run("self request", func(t *testing.T) {
		f := newFixture(t)
		me := f.tutor("Bob", 20)
		_, err := f.connections.Request(ctx, me, RequestConnectionInput{TutorID: me.ID.String()})
		requireKind(t, err, KindBadRequest)
	})

	t.Run("unknown tutor", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.connections.Request(ctx, f.student("Ann"), RequestConnectionInput{TutorID: uuid.NewString()})
		requireKind(t, err, KindNotFound)
	})

	t.Run("notifier failure does not fail request", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.err = assert.AnError
		_, err := f.connections.Request(ctx, f.student("Ann"), RequestConnectionInput{TutorID: f.tutor("Bob", 0).ID.String()})
		require.NoError(t, err)
	})
}

func TestConnectionService_Decide(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, model.Actor, model.Actor, *model.Connection) {
		f := newFixture(t)
		student, tutor := f.student("Ann"), f.tutor("Bob", 20)
		conn := f.store.AddConnection(model.Connection{
			StudentID: student.ID,
			TutorID:   tutor.ID,
			Status:    model.ConnectionStatusPending,
		})
		return f, student, tutor, conn
	}

	t.Run("accept seeds the chat", func(t *testing.T) {
		f, _, tutor, conn := setup(t)

		decided, err := f.connections.Decide(ctx, tutor, DecideConnectionInput{
			ConnectionID: conn.ID.String(),
			Status:       "ACCEPTED",
		})
		require.NoError(t, err)
		assert.Equal(t, model.ConnectionStatusAccepted, decided.Status)

		msgs := f.store.MessagesOf(model.ThreadRef{Kind: model.ThreadConnection, ID: conn.ID})
		require.Len(t, msgs, 1)
		assert.Equal(t, model.ConnectionAcceptedMessage, msgs[0].Content)
		assert.Equal(t, tutor.ID, msgs[0].SenderID)
		assert.False(t, msgs[0].IsRead)
		assert.Equal(t, []string{"connection.decided"}, f.notifier.events)
	})

	t.Run("reject does not seed", func(t *testing.T) {
		f, _, tutor, conn := setup(t)

		decided, err := f.connections.Decide(ctx, tutor, DecideConnectionInput{
			ConnectionID: conn.ID.String(),
			Status:       "REJECTED",
		})
		require.NoError(t, err)
		assert.Equal(t, model.ConnectionStatusRejected, decided.Status)
		assert.Empty(t, f.store.MessagesOf(model.ThreadRef{Kind: model.ThreadConnection, ID: conn.ID}))
	})

	t.Run("non-owner gets not found and state is untouched", func(t *testing.T) {
		f, student, _, conn := setup(t)

		_, err := f.connections.Decide(ctx, student, DecideConnectionInput{
			ConnectionID: conn.ID.String(),
			Status:       "ACCEPTED",
		})
		requireKind(t, err, KindNotFound)

		stored, ok := f.store.Connection(conn.ID)
		require.True(t, ok)
		assert.Equal(t, model.ConnectionStatusPending, stored.Status)
		assert.Empty(t, f.store.MessagesOf(model.ThreadRef{Kind: model.ThreadConnection, ID: conn.ID}))
	})

	t.Run("unknown id gets not found", func(t *testing.T) {
		f, _, tutor, _ := setup(t)
		_, err := f.connections.Decide(ctx, tutor, DecideConnectionInput{
			ConnectionID: uuid.NewString(),
			Status:       "ACCEPTED",
		})
		requireKind(t, err, KindNotFound)
	})

	t.Run("already decided gets not found", func(t *testing.T) {
		f, _, tutor, conn := setup(t)
		in := DecideConnectionInput{ConnectionID: conn.ID.String(), Status: "ACCEPTED"}

		_, err := f.connections.Decide(ctx, tutor, in)
		require.NoError(t, err)

		_, err = f.connections.Decide(ctx, tutor, in)
		requireKind(t, err, KindNotFound)
		assert.Len(t, f.store.MessagesOf(model.ThreadRef{Kind: model.ThreadConnection, ID: conn.ID}), 1)
	})

	t.Run("invalid status", func(t *testing.T) {
		f, _, tutor, conn := setup(t)
		_, err := f.connections.Decide(ctx, tutor, DecideConnectionInput{ConnectionID: conn.ID.String(), Status: "PENDING"})
		svcErr := requireKind(t, err, KindBadRequest)
		assert.Contains(t, svcErr.Fields, "status")
	})

	t.Run("seed failure rolls back the decision", func(t *testing.T) {
		f, _, tutor, conn := setup(t)
		f.store.Fail("messages.Create", assert.AnError)

		_, err := f.connections.Decide(ctx, tutor, DecideConnectionInput{
			ConnectionID: conn.ID.String(),
			Status:       "ACCEPTED",
		})
		requireKind(t, err, KindInternal)

		stored, _ := f.store.Connection(conn.ID)
		assert.Equal(t, model.ConnectionStatusPending, stored.Status)
		assert.Equal(t, 1, f.store.Rollbacks)
		assert.Empty(t, f.notifier.events)
	})
}

func TestConnectionService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tutor := f.tutor("Bob", 20)
	ann, cid := f.student("Ann"), f.student("Cid")

	first := f.store.AddConnection(model.Connection{StudentID: ann.ID, TutorID: tutor.ID, Status: model.ConnectionStatusPending})
	second := f.store.AddConnection(model.Connection{StudentID: cid.ID, TutorID: tutor.ID, Status: model.ConnectionStatusPending})
	f.store.AddConnection(model.Connection{StudentID: f.student("Dee").ID, TutorID: tutor.ID, Status: model.ConnectionStatusAccepted})

	t.Run("defaults to pending, newest first", func(t *testing.T) {
		list, err := f.connections.List(ctx, tutor, "")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
		require.NotNil(t, list[0].Student)
		assert.Equal(t, "Cid", list[0].Student.Name)
	})

	t.Run("accepted filter", func(t *testing.T) {
		list, err := f.connections.List(ctx, tutor, "ACCEPTED")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := f.connections.List(ctx, tutor, "MAYBE")
		requireKind(t, err, KindBadRequest)
	})

	t.Run("student sees nothing addressed to them", func(t *testing.T) {
		list, err := f.connections.List(ctx, ann, "")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
