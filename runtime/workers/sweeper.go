package workers

import (
	"chat-room/contract"
	"chat-room/domain"
	"chat-room/repositories"
	"chat-room/services"
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically evicts participants whose last activity is older
// than the idle timeout and posts a departure notice for each. One
// sweep runs at a time: the loop body executes inline and a tick firing
// during a sweep is simply dropped by the ticker.
type Sweeper struct {
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	index        contract.SearchIndex
	interval     time.Duration
	timeout      time.Duration
	clock        func() time.Time
	log          *slog.Logger
}

func NewSweeper(
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	index contract.SearchIndex,
	interval, timeout time.Duration,
	clock func() time.Time,
	log *slog.Logger,
) *Sweeper {
	if clock == nil {
		clock = time.Now
	}
	return &Sweeper{
		participants: participants,
		messages:     messages,
		index:        index,
		interval:     interval,
		timeout:      timeout,
		clock:        clock,
		log:          log,
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info("Starting presence sweeper", "interval", s.interval, "timeout", s.timeout)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep snapshots the registry and handles each idle participant
// independently: a failure on one is logged and never aborts the rest.
// Idleness is re-checked inside the eviction transaction, so a
// heartbeat committed before the check always wins.
func (s *Sweeper) Sweep() {
	now := s.clock().UTC()

	participants, err := s.participants.List()
	if err != nil {
		s.log.Error("Sweep skipped, registry unreadable", "err", err)
		return
	}

	for _, participant := range participants {
		if !participant.IsIdle(now, s.timeout) {
			continue
		}

		evicted, err := s.participants.EvictIfIdle(participant.Name, now, s.timeout)
		if err != nil {
			s.log.Error("Eviction failed, will retry next cycle", "name", participant.Name, "err", err)
			continue
		}
		if !evicted {
			// A heartbeat slipped in between the snapshot and the check.
			continue
		}

		s.log.Info("Participant evicted", "name", participant.Name, "lastSeen", participant.LastSeen)

		notice, err := s.messages.Append(domain.NewStatusMessage(participant.Name, services.LeaveNotice, now))
		if err != nil {
			// Cosmetic loss only; the eviction itself stands.
			s.log.Error("Departure notice not stored", "name", participant.Name, "err", err)
			continue
		}
		if err = s.index.Index(notice); err != nil {
			s.log.Warn("Departure notice not indexed", "id", notice.ID, "err", err)
		}
	}
}
