// Package domain contains core concepts of the chat room.
// This file defines Message records and the visibility rule.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// BroadcastTarget is the reserved recipient meaning "all participants".
const BroadcastTarget = "All"

// TimeLayout is the display format of Message.Time.
const TimeLayout = "15:04:05"

type MessageType string

const (
	// TypeMessage is a public message readable by everyone.
	TypeMessage MessageType = "message"
	// TypePrivate is readable only by its sender and recipient.
	TypePrivate MessageType = "private_message"
	// TypeStatus is a system-generated join/leave notice. It is never
	// accepted on the authenticated post path.
	TypeStatus MessageType = "status"
)

// Message is a chat event. ID and From are immutable once stored;
// At is the creation instant used as the ordering key.
type Message struct {
	ID   uuid.UUID   `json:"id"`
	From string      `json:"from"`
	To   string      `json:"to"`
	Text string      `json:"text"`
	Type MessageType `json:"type"`
	Time string      `json:"time"`
	At   time.Time   `json:"at"`
}

// VisibleTo reports whether requester may read the message.
// Public and status messages are visible to everyone; private messages
// only to their sender and recipient.
func (m Message) VisibleTo(requester string) bool {
	return m.Type == TypeMessage ||
		m.Type == TypeStatus ||
		m.To == requester ||
		m.From == requester
}

// NewStatusMessage builds a synthetic room notice for name at the given instant.
func NewStatusMessage(name, text string, at time.Time) Message {
	return Message{
		From: name,
		To:   BroadcastTarget,
		Text: text,
		Type: TypeStatus,
		Time: at.Format(TimeLayout),
		At:   at,
	}
}
