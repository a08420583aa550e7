package storage

import (
	"context"

	"evosculpt/internal/model"
)

// Store is the session journal. It records session metadata and one entry
// per evolved generation; genomes themselves are never stored.
type Store interface {
	Init(ctx context.Context) error
	SaveSession(ctx context.Context, session model.SessionRecord) error
	GetSession(ctx context.Context, id string) (model.SessionRecord, bool, error)
	ListSessions(ctx context.Context) ([]model.SessionRecord, error)
	AppendGeneration(ctx context.Context, record model.GenerationRecord) error
	ListGenerations(ctx context.Context, sessionID string) ([]model.GenerationRecord, error)
}
