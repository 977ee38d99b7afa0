// Package domain contains core concepts of the chat room.
// This file defines Participant entities and the presence invariant.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

// Participant is a registered chat identity with a liveness timestamp.
// The name doubles as the bearer credential supplied on every request.
type Participant struct {
	Name     string
	LastSeen time.Time
}

// IsIdle reports whether the participant has been silent for at least timeout.
func (p Participant) IsIdle(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastSeen) >= timeout
}
