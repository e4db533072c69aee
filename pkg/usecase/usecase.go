package usecase

import (
	"time"

	"github.com/fitlens-dev/fitlens/pkg/domain/interfaces"
	"github.com/fitlens-dev/fitlens/pkg/service/prompt"
)

// Policy holds the stage controller knobs. Values are configuration, not
// semantics: deployments tune them without code changes.
type Policy struct {
	// MinTurns is the floor of accepted user messages before the model's
	// readiness flag is honored. Prevents premature reports on sparse input.
	MinTurns int

	// MaxTurns is the hard ceiling: the conversation finalizes once this
	// many user messages are accepted, whether or not the model is ready.
	MaxTurns int

	// DeepDiveTurns is the turn count at which questioning moves from
	// narrowing to deep-dive.
	DeepDiveTurns int

	// LLMTimeout bounds each outbound completion call.
	LLMTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MinTurns:      3,
		MaxTurns:      6,
		DeepDiveTurns: 3,
		LLMTimeout:    40 * time.Second,
	}
}

type UseCases struct {
	repo      interfaces.Repository
	llmClient interfaces.LLMClient
	extractor interfaces.Extractor
	builder   *prompt.Builder
	policy    Policy
}

var _ interfaces.FitUsecases = &UseCases{}

type Option func(*UseCases)

func WithLLMClient(client interfaces.LLMClient) Option {
	return func(u *UseCases) {
		u.llmClient = client
	}
}

func WithExtractor(extractor interfaces.Extractor) Option {
	return func(u *UseCases) {
		u.extractor = extractor
	}
}

func WithPolicy(policy Policy) Option {
	return func(u *UseCases) {
		u.policy = policy
	}
}

func WithPromptBuilder(builder *prompt.Builder) Option {
	return func(u *UseCases) {
		u.builder = builder
	}
}

func New(repo interfaces.Repository, opts ...Option) (*UseCases, error) {
	u := &UseCases{
		repo:   repo,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(u)
	}

	if u.builder == nil {
		builder, err := prompt.New()
		if err != nil {
			return nil, err
		}
		u.builder = builder
	}

	return u, nil
}
