package services

import (
	"chat-room/access"
	"chat-room/domain"
	"chat-room/errors"
	"chat-room/mocks"
	"chat-room/moderation"
	"chat-room/repositories"
	"chat-room/search"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testClock = func() time.Time {
	return time.Date(2024, 5, 1, 13, 37, 42, 0, time.UTC)
}

type fixture struct {
	participants *mocks.MockIParticipantRepository
	messages     *mocks.MockIMessageRepository
	index        *search.Index
	service      *ChatService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	require.NoError(t, err)

	index, err := search.NewInMemoryIndex(slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	participants := mocks.NewMockIParticipantRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	return fixture{
		participants: participants,
		messages:     messages,
		index:        index,
		service:      NewChatService(participants, messages, moderator, index, testClock, slog.Default()),
	}
}

func TestChatService_Join(t *testing.T) {
	t.Run("should register and announce the arrival", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		now := testClock()

		f.participants.EXPECT().
			Join("Alice", now).
			Return(domain.Participant{Name: "Alice", LastSeen: now}, nil).
			Times(1)
		f.messages.EXPECT().
			Append(gomock.Any()).
			DoAndReturn(func(m domain.Message) (domain.Message, error) {
				req.Equal("Alice", m.From)
				req.Equal(domain.BroadcastTarget, m.To)
				req.Equal(domain.TypeStatus, m.Type)
				req.Equal(JoinNotice, m.Text)
				req.Equal("13:37:42", m.Time)
				m.ID = uuid.New()
				return m, nil
			}).
			Times(1)

		participant, err := f.service.Join("Alice")
		req.NoError(err)
		req.Equal("Alice", participant.Name)
	})

	t.Run("should reject a malformed name before touching the registry", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.participants.EXPECT().Join(gomock.Any(), gomock.Any()).Times(0)

		_, err := f.service.Join("Alice99!")
		req.ErrorIs(err, errors.ErrInvalidName)
	})

	t.Run("should surface a name conflict", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.participants.EXPECT().
			Join("Alice", gomock.Any()).
			Return(domain.Participant{}, errors.ErrNameTaken).
			Times(1)

		_, err := f.service.Join("Alice")
		req.ErrorIs(err, errors.ErrNameTaken)
	})

	t.Run("should succeed even when the arrival notice is not stored", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		now := testClock()

		f.participants.EXPECT().
			Join("Alice", now).
			Return(domain.Participant{Name: "Alice", LastSeen: now}, nil).
			Times(1)
		f.messages.EXPECT().
			Append(gomock.Any()).
			Return(domain.Message{}, context.DeadlineExceeded).
			Times(1)

		_, err := f.service.Join("Alice")
		req.NoError(err)
	})
}

func TestChatService_PostMessage(t *testing.T) {
	t.Run("should censor and store a valid message", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.participants.EXPECT().Exists("Alice").Return(true, nil).Times(1)
		f.messages.EXPECT().
			Append(gomock.Any()).
			DoAndReturn(func(m domain.Message) (domain.Message, error) {
				req.Equal("Alice", m.From)
				req.Equal("the ****** bites", m.Text)
				req.Equal(domain.TypePrivate, m.Type)
				m.ID = uuid.New()
				return m, nil
			}).
			Times(1)

		stored, err := f.service.PostMessage("Alice", access.MessageBody{
			To: "Bob", Text: "the badger bites", Type: domain.TypePrivate,
		})
		req.NoError(err)
		req.Equal("the ****** bites", stored.Text)
	})

	t.Run("should reject an unregistered sender", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.participants.EXPECT().Exists("Ghost").Return(false, nil).Times(1)
		f.messages.EXPECT().Append(gomock.Any()).Times(0)

		_, err := f.service.PostMessage("Ghost", access.MessageBody{
			To: "Bob", Text: "boo", Type: domain.TypeMessage,
		})
		req.ErrorIs(err, errors.ErrUnregisteredSender)
	})

	t.Run("should reject a malformed body before any lookup", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.participants.EXPECT().Exists(gomock.Any()).Times(0)

		_, err := f.service.PostMessage("Alice", access.MessageBody{
			To: "Bob", Text: "hi", Type: domain.TypeStatus,
		})
		req.ErrorIs(err, errors.ErrInvalidMessage)
	})
}

func TestChatService_ListMessages(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	history := []domain.Message{
		{From: "Alice", To: domain.BroadcastTarget, Text: "one", Type: domain.TypeMessage},
		{From: "Alice", To: "Bob", Text: "two", Type: domain.TypePrivate},
		{From: "Carol", To: "Dave", Text: "three", Type: domain.TypePrivate},
		{From: "Bob", To: "Alice", Text: "four", Type: domain.TypePrivate},
	}
	f.messages.EXPECT().All().Return(history, nil).Times(2)

	visible, err := f.service.ListMessages("Bob", 0)
	req.NoError(err)
	req.Len(visible, 3)
	req.Equal("one", visible[0].Text)

	limited, err := f.service.ListMessages("Bob", 2)
	req.NoError(err)
	req.Len(limited, 2)
	req.Equal("four", limited[0].Text)
	req.Equal("two", limited[1].Text)
}

func TestChatService_EditMessage(t *testing.T) {
	id := uuid.New()
	current := domain.Message{
		ID: id, From: "Alice", To: "Bob", Text: "draft", Type: domain.TypePrivate,
	}

	t.Run("should let the owner edit, keeping id and sender", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.messages.EXPECT().Get(id).Return(current, nil).Times(1)
		f.messages.EXPECT().
			Update(id, repositories.MessageUpdate{
				To: "Bob", Text: "final", Type: domain.TypePrivate, Time: "13:37:42",
			}).
			Return(domain.Message{ID: id, From: "Alice", To: "Bob", Text: "final", Type: domain.TypePrivate, Time: "13:37:42"}, nil).
			Times(1)

		updated, err := f.service.EditMessage("Alice", id, access.MessageBody{
			To: "Bob", Text: "final", Type: domain.TypePrivate,
		})
		req.NoError(err)
		req.Equal(id, updated.ID)
		req.Equal("Alice", updated.From)
	})

	t.Run("should refuse a non-owner", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.messages.EXPECT().Get(id).Return(current, nil).Times(1)
		f.messages.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := f.service.EditMessage("Bob", id, access.MessageBody{
			To: "Bob", Text: "hijack", Type: domain.TypePrivate,
		})
		req.ErrorIs(err, errors.ErrNotMessageOwner)
	})

	t.Run("should report an unknown id", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.messages.EXPECT().Get(id).Return(domain.Message{}, errors.ErrMessageUnknown).Times(1)

		_, err := f.service.EditMessage("Alice", id, access.MessageBody{
			To: "Bob", Text: "final", Type: domain.TypePrivate,
		})
		req.ErrorIs(err, errors.ErrMessageUnknown)
	})

	t.Run("should reject a malformed replacement body", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.messages.EXPECT().Get(id).Return(current, nil).Times(1)
		f.messages.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := f.service.EditMessage("Alice", id, access.MessageBody{To: "Bob"})
		req.ErrorIs(err, errors.ErrInvalidMessage)
	})
}

func TestChatService_DeleteMessage(t *testing.T) {
	id := uuid.New()
	owned := domain.Message{ID: id, From: "Alice", To: "Bob", Type: domain.TypePrivate}

	t.Run("should let the owner delete", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.messages.EXPECT().Get(id).Return(owned, nil).Times(1)
		f.messages.EXPECT().Remove(id).Return(nil).Times(1)

		req.NoError(f.service.DeleteMessage("Alice", id))
	})

	t.Run("should refuse a non-owner", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		f.messages.EXPECT().Get(id).Return(owned, nil).Times(1)
		f.messages.EXPECT().Remove(gomock.Any()).Times(0)

		req.ErrorIs(f.service.DeleteMessage("Eve", id), errors.ErrNotMessageOwner)
	})

	t.Run("should refuse deleting a status notice, even by its subject", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		notice := domain.Message{ID: id, From: "Alice", To: domain.BroadcastTarget, Type: domain.TypeStatus}

		f.messages.EXPECT().Get(id).Return(notice, nil).Times(1)
		f.messages.EXPECT().Remove(gomock.Any()).Times(0)

		req.ErrorIs(f.service.DeleteMessage("Alice", id), errors.ErrNotMessageOwner)
	})
}

func TestChatService_SearchMessages(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	public := domain.Message{ID: uuid.New(), From: "Alice", To: domain.BroadcastTarget, Text: "quarterly invoice ready", Type: domain.TypeMessage}
	private := domain.Message{ID: uuid.New(), From: "Carol", To: "Dave", Text: "secret invoice numbers", Type: domain.TypePrivate}
	req.NoError(f.index.Index(public))
	req.NoError(f.index.Index(private))

	f.messages.EXPECT().Get(public.ID).Return(public, nil).AnyTimes()
	f.messages.EXPECT().Get(private.ID).Return(private, nil).AnyTimes()

	results, err := f.service.SearchMessages(context.Background(), "Bob", "invoice", 10)
	req.NoError(err)
	req.Len(results, 1)
	req.Equal(public.ID, results[0].ID)

	results, err = f.service.SearchMessages(context.Background(), "Dave", "invoice", 10)
	req.NoError(err)
	req.Len(results, 2)
}
