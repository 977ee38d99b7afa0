package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrInvalidName        = fmt.Errorf("invalid display name")
	ErrInvalidMessage     = fmt.Errorf("invalid message body")
	ErrNameTaken          = fmt.Errorf("participant name already taken")
	ErrParticipantUnknown = fmt.Errorf("participant not found")
	ErrMessageUnknown     = fmt.Errorf("message not found")
	ErrNotMessageOwner    = fmt.Errorf("requester does not own the message")
	ErrUnregisteredSender = fmt.Errorf("sender is not a registered participant")
)
