//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-room/domain"
	"chat-room/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix      = "msg:"
	messageIndexPrefix = "idx:msg:"
)

type IMessageRepository interface {
	Append(message domain.Message) (domain.Message, error)
	All() ([]domain.Message, error)
	Get(id uuid.UUID) (domain.Message, error)
	Update(id uuid.UUID, fields MessageUpdate) (domain.Message, error)
	Remove(id uuid.UUID) error
}

// MessageUpdate carries the mutable fields of a stored message.
// From, ID, and the creation instant never change.
type MessageUpdate struct {
	To   string
	Text string
	Type domain.MessageType
	Time string
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) IMessageRepository {
	return &MessageRepository{db: db, log: log}
}

// diskMessage mirrors the persisted document layout:
// messages{_id, from, to, text, type, time} plus the ordering instant.
type diskMessage struct {
	ID   string `json:"_id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
	At   int64  `json:"at"`
}

// Append assigns an id and stores the message under a key formatted as
// "msg:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding makes lexicographic key order equal
//     creation order.
//  2. The uuid suffix disambiguates two messages stored in the same
//     nanosecond.
//
// A secondary "idx:msg:{uuid}" entry points at the primary key so that
// Get/Update/Remove can resolve an id without scanning.
func (m *MessageRepository) Append(message domain.Message) (domain.Message, error) {
	message.ID = uuid.New()
	if message.At.IsZero() {
		message.At = time.Now().UTC()
	}

	primary := messageKey(message.At, message.ID)
	data, err := json.Marshal(toDiskMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	err = update(m.db, func(txn *badger.Txn) error {
		if err := txn.Set(primary, data); err != nil {
			return err
		}
		return txn.Set(messageIndexKey(message.ID), primary)
	})
	if err != nil {
		return domain.Message{}, err
	}

	m.log.Debug("Message stored", "id", message.ID, "type", message.Type)
	return message, nil
}

// All returns every stored message in creation order.
func (m *MessageRepository) All() ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				msg, err := fromDiskValue(val)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

func (m *MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		val, err := m.resolve(txn, id)
		if err != nil {
			return err
		}
		message, err = fromDiskValue(val)
		return err
	})
	return message, err
}

// Update replaces the mutable fields, keeping id, sender, and creation
// instant fixed. Running inside one transaction serializes it against a
// concurrent Remove of the same id.
func (m *MessageRepository) Update(id uuid.UUID, fields MessageUpdate) (domain.Message, error) {
	var updated domain.Message
	err := update(m.db, func(txn *badger.Txn) error {
		val, err := m.resolve(txn, id)
		if err != nil {
			return err
		}
		current, err := fromDiskValue(val)
		if err != nil {
			return err
		}

		current.To = fields.To
		current.Text = fields.Text
		current.Type = fields.Type
		current.Time = fields.Time

		data, err := json.Marshal(toDiskMessage(current))
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		if err = txn.Set(messageKey(current.At, current.ID), data); err != nil {
			return err
		}
		updated = current
		return nil
	})
	return updated, err
}

func (m *MessageRepository) Remove(id uuid.UUID) error {
	return update(m.db, func(txn *badger.Txn) error {
		indexKey := messageIndexKey(id)
		item, err := txn.Get(indexKey)
		if err == badger.ErrKeyNotFound {
			return errors.ErrMessageUnknown
		} else if err != nil {
			return err
		}

		primary, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err = txn.Delete(primary); err != nil {
			return err
		}
		return txn.Delete(indexKey)
	})
}

// resolve follows the id index to the primary entry and returns its value.
func (m *MessageRepository) resolve(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(messageIndexKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, errors.ErrMessageUnknown
	} else if err != nil {
		return nil, err
	}

	primary, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	primaryItem, err := txn.Get(primary)
	if err == badger.ErrKeyNotFound {
		return nil, errors.ErrMessageUnknown
	} else if err != nil {
		return nil, err
	}
	return primaryItem.ValueCopy(nil)
}

func messageKey(at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, at.UnixNano(), id))
}

func messageIndexKey(id uuid.UUID) []byte {
	return []byte(messageIndexPrefix + id.String())
}

func toDiskMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:   message.ID.String(),
		From: message.From,
		To:   message.To,
		Text: message.Text,
		Type: string(message.Type),
		Time: message.Time,
		At:   message.At.UnixNano(),
	}
}

func fromDiskValue(val []byte) (domain.Message, error) {
	var disk diskMessage
	if err := json.Unmarshal(val, &disk); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("parse message id: %w", err)
	}
	return domain.Message{
		ID:   parsedID,
		From: disk.From,
		To:   disk.To,
		Text: disk.Text,
		Type: domain.MessageType(disk.Type),
		Time: disk.Time,
		At:   time.Unix(0, disk.At).UTC(),
	}, nil
}
