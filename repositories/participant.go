//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"chat-room/domain"
	"chat-room/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const participantPrefix = "participant:"

type IParticipantRepository interface {
	Join(name string, now time.Time) (domain.Participant, error)
	Heartbeat(name string, now time.Time) error
	Exists(name string) (bool, error)
	List() ([]domain.Participant, error)
	Evict(name string) (domain.Participant, error)
	EvictIfIdle(name string, now time.Time, timeout time.Duration) (bool, error)
}

type ParticipantRepository struct {
	db *badger.DB
}

func NewParticipantRepository(db *badger.DB) IParticipantRepository {
	return &ParticipantRepository{db: db}
}

// diskParticipant mirrors the persisted document layout:
// participants{name, lastStatus}, lastStatus in Unix milliseconds.
type diskParticipant struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

// Join inserts a participant if the name is free. Check and insert happen
// inside one transaction, so of two concurrent joins for the same name
// exactly one succeeds and the other observes ErrNameTaken.
func (r *ParticipantRepository) Join(name string, now time.Time) (domain.Participant, error) {
	participant := domain.Participant{Name: name, LastSeen: now.UTC().Truncate(time.Millisecond)}

	err := update(r.db, func(txn *badger.Txn) error {
		key := participantKey(name)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrNameTaken
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, mustMarshalParticipant(participant))
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

// Heartbeat refreshes the liveness timestamp of a known participant.
func (r *ParticipantRepository) Heartbeat(name string, now time.Time) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := participantKey(name)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return errors.ErrParticipantUnknown
		} else if err != nil {
			return err
		}
		refreshed := domain.Participant{Name: name, LastSeen: now.UTC().Truncate(time.Millisecond)}
		return txn.Set(key, mustMarshalParticipant(refreshed))
	})
}

// Exists reports whether a participant is currently registered.
func (r *ParticipantRepository) Exists(name string) (bool, error) {
	exists := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(participantKey(name))
		if err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// List returns all active participants. Order is not guaranteed beyond
// badger's key ordering and callers must not rely on it.
func (r *ParticipantRepository) List() ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(participantPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				p, err := unmarshalParticipant(val)
				if err != nil {
					return err
				}
				participants = append(participants, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return participants, err
}

// Evict removes a participant unconditionally.
func (r *ParticipantRepository) Evict(name string) (domain.Participant, error) {
	var evicted domain.Participant
	err := update(r.db, func(txn *badger.Txn) error {
		key := participantKey(name)
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return errors.ErrParticipantUnknown
		} else if err != nil {
			return err
		}
		if err = item.Value(func(val []byte) error {
			evicted, err = unmarshalParticipant(val)
			return err
		}); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return evicted, err
}

// EvictIfIdle deletes the participant only if still idle at check time,
// inside the same transaction. A heartbeat committed before the check
// therefore always prevents the eviction. Returns whether it evicted.
func (r *ParticipantRepository) EvictIfIdle(name string, now time.Time, timeout time.Duration) (bool, error) {
	evicted := false
	err := update(r.db, func(txn *badger.Txn) error {
		evicted = false
		key := participantKey(name)
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			// Already gone, nothing to do this cycle.
			return nil
		} else if err != nil {
			return err
		}

		var p domain.Participant
		if err = item.Value(func(val []byte) error {
			p, err = unmarshalParticipant(val)
			return err
		}); err != nil {
			return err
		}
		if !p.IsIdle(now, timeout) {
			return nil
		}
		if err = txn.Delete(key); err != nil {
			return err
		}
		evicted = true
		return nil
	})
	return evicted, err
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

func mustMarshalParticipant(p domain.Participant) []byte {
	data, err := json.Marshal(diskParticipant{
		Name:       p.Name,
		LastStatus: p.LastSeen.UnixMilli(),
	})
	if err != nil {
		// A participant document is two scalar fields; this cannot fail.
		panic(fmt.Sprintf("marshal participant: %v", err))
	}
	return data
}

func unmarshalParticipant(val []byte) (domain.Participant, error) {
	var disk diskParticipant
	if err := json.Unmarshal(val, &disk); err != nil {
		return domain.Participant{}, fmt.Errorf("unmarshal participant: %w", err)
	}
	return domain.Participant{
		Name:     disk.Name,
		LastSeen: time.UnixMilli(disk.LastStatus).UTC(),
	}, nil
}
