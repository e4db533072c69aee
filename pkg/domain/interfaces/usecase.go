package interfaces

import (
	"context"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/domain/types"
)

// FitUsecases is the operation surface consumed by transport adapters.
// The returned session carries the stage, the latest assistant message and,
// once terminal, the cached verdict and report.
type FitUsecases interface {
	Start(ctx context.Context, contextText string) (*session.Session, error)
	StartFromFile(ctx context.Context, filename string, data []byte) (*session.Session, error)
	Message(ctx context.Context, id types.SessionID, message string) (*session.Session, error)
}
