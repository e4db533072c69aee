package usecase

import (
	"context"
	"strings"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/errs"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/domain/types"
	"github.com/fitlens-dev/fitlens/pkg/service/llm"
	"github.com/fitlens-dev/fitlens/pkg/service/prompt"
	"github.com/fitlens-dev/fitlens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// questionResponse is the strict shape the model must return for "next
// question" calls.
type questionResponse struct {
	Message        string `json:"message"`
	ReadyForReport bool   `json:"readyForReport"`
}

// Start creates a session from free-form context text and returns it with
// the opening assistant question appended.
//
// Opening question policy: empty context text skips the completion API
// entirely and uses the fixed default; non-empty context gets a
// model-generated opener, with the fixed default substituted on failure.
func (x *UseCases) Start(ctx context.Context, contextText string) (*session.Session, error) {
	x.repo.Sweep(ctx)

	contextText = x.builder.TruncateContext(strings.TrimSpace(contextText))
	sess := session.New(ctx, contextText)

	opening := prompt.DefaultOpeningQuestion
	if contextText != "" {
		llmCtx, cancel := context.WithTimeout(ctx, x.policy.LLMTimeout)
		defer cancel()

		if q, err := x.askQuestion(llmCtx, sess); err != nil {
			// Upstream failures degrade to the fixed opener. A missing client
			// is a configuration error and fails the request instead.
			if goerr.HasTag(err, errs.TagConfig) {
				return nil, err
			}
			logging.From(ctx).Warn("opening question fell back to default",
				"session_id", sess.ID, logging.ErrAttr(err))
		} else {
			opening = q.Message
		}
	}

	sess.AppendAssistant(ctx, opening)
	sess.Advance(types.StageNarrowing)

	if err := x.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("diagnostic session started",
		"session_id", sess.ID, "context_length", len(contextText))

	return sess.Clone(), nil
}

// StartFromFile extracts plain text from an uploaded document and starts a
// session from it.
func (x *UseCases) StartFromFile(ctx context.Context, filename string, data []byte) (*session.Session, error) {
	if x.extractor == nil {
		return nil, goerr.New("no extractor configured", goerr.T(errs.TagConfig))
	}

	text, err := x.extractor.Extract(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	return x.Start(ctx, text)
}

// Message processes one user message and returns the updated session: a
// follow-up question while the diagnostic continues, or the cached report
// once it is terminal.
func (x *UseCases) Message(ctx context.Context, id types.SessionID, message string) (*session.Session, error) {
	x.repo.Sweep(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, goerr.New("message is empty", goerr.T(errs.TagValidation))
	}

	var result *session.Session
	err := x.repo.WithSession(ctx, id, func(ctx context.Context, sess *session.Session) error {
		// Terminal sessions are idempotent: return the cached report and
		// never touch the completion API again.
		if sess.Terminal() {
			result = sess.Clone()
			return nil
		}

		// Active turns need the completion API. Fail before mutating the
		// session so the turn can be retried once configuration is fixed.
		if x.llmClient == nil {
			return goerr.New("LLM client is not configured", goerr.T(errs.TagConfig))
		}

		sess.AppendUser(ctx, message)

		llmCtx, cancel := context.WithTimeout(ctx, x.policy.LLMTimeout)
		defer cancel()

		if sess.UserTurns >= x.policy.MaxTurns {
			x.finalize(llmCtx, sess)
			result = sess.Clone()
			return nil
		}

		content := prompt.DefaultClarifyingQuestion
		ready := false
		usable := false
		if q, err := x.askQuestion(llmCtx, sess); err != nil {
			// Unusable model output never fails the turn: substitute the
			// neutral question, ignore any readiness signal and leave the
			// stage where it is.
			logging.From(ctx).Warn("next question fell back to default",
				"session_id", sess.ID, logging.ErrAttr(err))
		} else {
			content = q.Message
			ready = q.ReadyForReport
			usable = true
		}

		if ready && sess.UserTurns >= x.policy.MinTurns {
			x.finalize(llmCtx, sess)
			result = sess.Clone()
			return nil
		}

		if usable {
			if sess.UserTurns >= x.policy.DeepDiveTurns {
				sess.Advance(types.StageDeepDive)
			} else {
				sess.Advance(types.StageNarrowing)
			}
		}
		sess.AppendAssistant(ctx, content)

		result = sess.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (x *UseCases) askQuestion(ctx context.Context, sess *session.Session) (*questionResponse, error) {
	if x.llmClient == nil {
		return nil, goerr.New("LLM client is not configured", goerr.T(errs.TagConfig))
	}

	p, err := x.builder.Question(sess)
	if err != nil {
		return nil, err
	}

	return llm.Ask[questionResponse](ctx, x.llmClient, p,
		llm.WithValidate[questionResponse](func(v *questionResponse) error {
			if strings.TrimSpace(v.Message) == "" {
				return goerr.New("question message is empty")
			}
			return nil
		}))
}

// finalize produces the report, caches it on the session and moves it to
// the terminal stage. It never fails: unusable model output is replaced by
// the canned fallback report.
func (x *UseCases) finalize(ctx context.Context, sess *session.Session) {
	report := x.askReport(ctx, sess)
	report.Normalize()

	sess.Finalize(report)
	sess.AppendAssistant(ctx, report.Summary)

	logging.From(ctx).Info("diagnostic session finalized",
		"session_id", sess.ID, "verdict", report.Verdict, "user_turns", sess.UserTurns)
}

func (x *UseCases) askReport(ctx context.Context, sess *session.Session) *session.Report {
	if x.llmClient == nil {
		logging.From(ctx).Warn("report fell back to canned content: LLM client is not configured",
			"session_id", sess.ID)
		return fallbackReport()
	}

	p, err := x.builder.Report(sess)
	if err != nil {
		errs.Handle(ctx, err)
		return fallbackReport()
	}

	report, err := llm.Ask[session.Report](ctx, x.llmClient, p,
		llm.WithValidate[session.Report](func(v *session.Report) error {
			return v.Validate()
		}))
	if err != nil {
		logging.From(ctx).Warn("report fell back to canned content",
			"session_id", sess.ID, logging.ErrAttr(err))
		return fallbackReport()
	}

	return report
}
