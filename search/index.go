// Package search maintains a bluge full-text index over message bodies.
// The index is an auxiliary structure: the badger store stays the source
// of truth and ids returned here are always resolved against it.
package search

import (
	"chat-room/domain"
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const textField = "text"

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

// NewInMemoryIndex backs the index with memory only. Used by tests.
func NewInMemoryIndex(log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

// Index upserts the message body under its id.
func (i *Index) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField(textField, message.Text)).
		AddField(bluge.NewKeywordField("from", message.From))
	return i.writer.Update(doc.ID(), doc)
}

func (i *Index) Delete(id uuid.UUID) error {
	return i.writer.Delete(bluge.Identifier(id.String()))
}

// Search returns the ids of the best-matching messages, most relevant
// first. Ids of since-deleted messages may appear; callers resolve them
// against the store and drop the misses.
func (i *Index) Search(ctx context.Context, terms string, limit int) ([]uuid.UUID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewMatchQuery(terms).SetField(textField)
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != "_id" {
				return true
			}
			id, parseErr := uuid.Parse(string(value))
			if parseErr != nil {
				i.log.Warn("Skipping non-uuid document in index", "raw", string(value))
				return false
			}
			ids = append(ids, id)
			return false
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}
