package interfaces

import (
	"context"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/domain/types"
)

// Repository stores ephemeral diagnostic sessions. Implementations must
// serialize access per session so concurrent messages for the same ID
// cannot lose turn counter updates.
type Repository interface {
	CreateSession(ctx context.Context, sess *session.Session) error

	// GetSession returns the session and refreshes its activity deadline.
	// Unknown or expired IDs yield an error tagged errs.TagNotFound.
	GetSession(ctx context.Context, id types.SessionID) (*session.Session, error)

	// WithSession runs fn holding the session's write lock. fn receives the
	// live session, so any mutation persists even when fn returns an error;
	// callers that need all-or-nothing semantics must mutate only after the
	// fallible work has succeeded.
	WithSession(ctx context.Context, id types.SessionID, fn func(ctx context.Context, sess *session.Session) error) error

	// Sweep evicts sessions idle past the TTL and returns the eviction count.
	Sweep(ctx context.Context) int
}
