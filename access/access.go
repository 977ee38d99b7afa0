// Package access enforces who may read, post, edit, and delete messages.
package access

import (
	"chat-room/domain"
	"chat-room/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// MessageBody is the user-supplied part of a message. The status type is
// deliberately absent from oneof: status notices are system-generated only.
type MessageBody struct {
	To   string             `json:"to" validate:"required"`
	Text string             `json:"text" validate:"required"`
	Type domain.MessageType `json:"type" validate:"required,oneof=message private_message"`
}

// ValidateBody checks the shape of a posted or edited message body.
func ValidateBody(body MessageBody) error {
	if err := validate.Struct(body); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	return nil
}

// Visible returns the subset of messages the requester may read.
// Without a limit the result keeps creation order. With limit > 0 the
// visible history is reversed to newest-first and truncated to limit.
func Visible(messages []domain.Message, requester string, limit int) []domain.Message {
	visible := lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.VisibleTo(requester)
	})
	if limit <= 0 {
		return visible
	}
	visible = lo.Reverse(visible)
	if len(visible) > limit {
		visible = visible[:limit]
	}
	return visible
}

// CanModify checks edit/delete rights: only the author may touch a
// message, and status notices are immutable through the user path.
func CanModify(m domain.Message, requester string) error {
	if m.Type == domain.TypeStatus || m.From != requester {
		return errors.ErrNotMessageOwner
	}
	return nil
}
