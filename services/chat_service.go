package services

import (
	"chat-room/access"
	"chat-room/contract"
	"chat-room/domain"
	"chat-room/errors"
	"chat-room/moderation"
	"chat-room/repositories"
	"context"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Room notice wording. Presentation detail, safe to localize.
const (
	JoinNotice  = "joined the room"
	LeaveNotice = "left the room"
)

const defaultSearchLimit = 20

type IChatService interface {
	Join(name string) (domain.Participant, error)
	Heartbeat(name string) error
	ListParticipants() ([]domain.Participant, error)
	PostMessage(from string, body access.MessageBody) (domain.Message, error)
	ListMessages(requester string, limit int) ([]domain.Message, error)
	EditMessage(requester string, id uuid.UUID, body access.MessageBody) (domain.Message, error)
	DeleteMessage(requester string, id uuid.UUID) error
	SearchMessages(ctx context.Context, requester, terms string, limit int) ([]domain.Message, error)
}

// ChatService composes the registry, the message store, access control,
// and moderation behind the operations the boundary layer exposes.
// Identity is always an explicit parameter, never ambient state.
type ChatService struct {
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	moderator    moderation.Moderator
	index        contract.SearchIndex
	clock        func() time.Time
	log          *slog.Logger
}

func NewChatService(
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	moderator moderation.Moderator,
	index contract.SearchIndex,
	clock func() time.Time,
	log *slog.Logger,
) *ChatService {
	if clock == nil {
		clock = time.Now
	}
	return &ChatService{
		participants: participants,
		messages:     messages,
		moderator:    moderator,
		index:        index,
		clock:        clock,
		log:          log,
	}
}

// Join registers a new participant and announces the arrival with a
// status notice. The notice is cosmetic: a store failure after a
// successful join is logged, not surfaced.
func (s *ChatService) Join(name string) (domain.Participant, error) {
	if !domain.IsValidDisplayName(name) {
		return domain.Participant{}, errors.ErrInvalidName
	}

	now := s.clock().UTC()
	participant, err := s.participants.Join(name, now)
	if err != nil {
		return domain.Participant{}, err
	}

	s.appendNotice(name, JoinNotice, now)
	return participant, nil
}

func (s *ChatService) Heartbeat(name string) error {
	return s.participants.Heartbeat(name, s.clock().UTC())
}

func (s *ChatService) ListParticipants() ([]domain.Participant, error) {
	return s.participants.List()
}

// PostMessage runs all write checks before any mutation: body shape
// first, then sender registration. The text is censored before it is
// stored, so forbidden words never reach the log.
func (s *ChatService) PostMessage(from string, body access.MessageBody) (domain.Message, error) {
	if err := access.ValidateBody(body); err != nil {
		return domain.Message{}, err
	}

	registered, err := s.participants.Exists(from)
	if err != nil {
		return domain.Message{}, err
	}
	if !registered {
		return domain.Message{}, errors.ErrUnregisteredSender
	}

	now := s.clock().UTC()
	message := domain.Message{
		From: from,
		To:   body.To,
		Text: s.censor(from, body.Text),
		Type: body.Type,
		Time: now.Format(domain.TimeLayout),
		At:   now,
	}

	stored, err := s.messages.Append(message)
	if err != nil {
		return domain.Message{}, err
	}
	s.indexMessage(stored)
	return stored, nil
}

func (s *ChatService) ListMessages(requester string, limit int) ([]domain.Message, error) {
	all, err := s.messages.All()
	if err != nil {
		return nil, err
	}
	return access.Visible(all, requester, limit), nil
}

// EditMessage replaces the mutable fields of an owned message. Check
// order: existence, body shape, ownership; nothing mutates on failure.
func (s *ChatService) EditMessage(requester string, id uuid.UUID, body access.MessageBody) (domain.Message, error) {
	current, err := s.messages.Get(id)
	if err != nil {
		return domain.Message{}, err
	}
	if err = access.ValidateBody(body); err != nil {
		return domain.Message{}, err
	}
	if err = access.CanModify(current, requester); err != nil {
		return domain.Message{}, err
	}

	updated, err := s.messages.Update(id, repositories.MessageUpdate{
		To:   body.To,
		Text: s.censor(requester, body.Text),
		Type: body.Type,
		Time: s.clock().UTC().Format(domain.TimeLayout),
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.indexMessage(updated)
	return updated, nil
}

func (s *ChatService) DeleteMessage(requester string, id uuid.UUID) error {
	current, err := s.messages.Get(id)
	if err != nil {
		return err
	}
	if err = access.CanModify(current, requester); err != nil {
		return err
	}
	if err = s.messages.Remove(id); err != nil {
		return err
	}
	if err = s.index.Delete(id); err != nil {
		s.log.Warn("Message not removed from search index", "id", id, "err", err)
	}
	return nil
}

// SearchMessages resolves index hits against the store and keeps only
// what the requester may read, preserving relevance order.
func (s *ChatService) SearchMessages(ctx context.Context, requester, terms string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	// Over-fetch: visibility filtering and stale index entries can both
	// shrink the candidate set.
	ids, err := s.index.Search(ctx, terms, limit*4)
	if err != nil {
		return nil, err
	}

	var results []domain.Message
	for _, id := range ids {
		message, err := s.messages.Get(id)
		if err == errors.ErrMessageUnknown {
			continue
		} else if err != nil {
			return nil, err
		}
		if !message.VisibleTo(requester) {
			continue
		}
		results = append(results, message)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (s *ChatService) censor(author, text string) string {
	censored, matched := s.moderator.Censor(text)
	if len(matched) > 0 {
		info := whatlanggo.Detect(text)
		s.log.Warn("Message censored",
			"author", author,
			"matches", len(matched),
			"lang", info.Lang.Iso6391())
	}
	return censored
}

func (s *ChatService) appendNotice(name, text string, at time.Time) {
	stored, err := s.messages.Append(domain.NewStatusMessage(name, text, at))
	if err != nil {
		s.log.Error("Status notice not stored", "name", name, "text", text, "err", err)
		return
	}
	s.indexMessage(stored)
}

func (s *ChatService) indexMessage(message domain.Message) {
	if err := s.index.Index(message); err != nil {
		s.log.Warn("Message not indexed for search", "id", message.ID, "err", err)
	}
}
