// Package contract holds the small interfaces shared across packages.
package contract

import (
	"chat-room/domain"
	"context"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself: supervision, restarts, and panic
// recovery are the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// SearchIndex is the full-text index over message bodies.
type SearchIndex interface {
	Index(message domain.Message) error
	Delete(id uuid.UUID) error
	Search(ctx context.Context, terms string, limit int) ([]uuid.UUID, error)
	Close() error
}
