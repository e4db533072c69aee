package interfaces

import (
	"context"

	"github.com/m-mizutani/gollem"
)

// LLMClient is the subset of gollem.LLMClient this service consumes.
// gollem provider clients and gollem/mock doubles both satisfy it.
type LLMClient interface {
	NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

// Extractor turns an uploaded document into plain text. The filename is
// only consulted for its extension.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}
