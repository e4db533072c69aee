package prompt

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed templates/question.md templates/report.md
var templateFS embed.FS

// Fixed content substituted when the model call is skipped or fails. Both
// are part of the fallback contract: the client always gets a question.
const (
	DefaultOpeningQuestion    = "Thanks for reaching out. To get started, what is the one task that eats the most time for you or your team each week?"
	DefaultClarifyingQuestion = "Could you tell me more about how that plays out day to day?"
)

const (
	DefaultContextLimit = 8000
	DefaultEarlyTurns   = 2
	DefaultLateTurns    = 4
)

const (
	instructionEarly = "This is an early turn. Clarify the symptom the client describes. Do not conclude yet and do not signal readiness for the report."
	instructionMid   = "Drill toward the root cause of the client's problem. You may signal readiness for the report if you are confident you understand the problem, its cost, and the desired outcome."
	instructionLate  = "You must conclude now. Ask at most one final clarifying question, then signal readiness for the report."
)

// Builder assembles the prompts sent to the completion API. It owns the
// consultant profile, the context truncation budget, and the turn-phase
// instruction policy.
type Builder struct {
	profile      *Profile
	contextLimit int
	earlyTurns   int
	lateTurns    int

	questionTmpl *template.Template
	reportTmpl   *template.Template
}

type Option func(*Builder)

func WithProfile(p *Profile) Option {
	return func(b *Builder) {
		b.profile = p
	}
}

// WithContextLimit bounds the user-supplied context text replayed into
// prompts, in characters. The character budget approximates a token budget;
// it bounds request size and cost, not semantics.
func WithContextLimit(limit int) Option {
	return func(b *Builder) {
		b.contextLimit = limit
	}
}

// WithTurnPhases sets the turn counts at which the per-turn instruction
// shifts from clarifying to concluding.
func WithTurnPhases(early, late int) Option {
	return func(b *Builder) {
		b.earlyTurns = early
		b.lateTurns = late
	}
}

func New(opts ...Option) (*Builder, error) {
	b := &Builder{
		profile:      DefaultProfile(),
		contextLimit: DefaultContextLimit,
		earlyTurns:   DefaultEarlyTurns,
		lateTurns:    DefaultLateTurns,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.earlyTurns > b.lateTurns {
		return nil, goerr.New("early turn threshold exceeds late turn threshold",
			goerr.V("early", b.earlyTurns), goerr.V("late", b.lateTurns))
	}

	var err error
	if b.questionTmpl, err = template.ParseFS(templateFS, "templates/question.md"); err != nil {
		return nil, goerr.Wrap(err, "failed to parse question template")
	}
	if b.reportTmpl, err = template.ParseFS(templateFS, "templates/report.md"); err != nil {
		return nil, goerr.Wrap(err, "failed to parse report template")
	}

	return b, nil
}

type templateData struct {
	Profile     *Profile
	Context     string
	Transcript  []session.Message
	Instruction string
}

// TruncateContext bounds free-form context text to the configured character
// budget. The cut lands on a rune boundary so truncated text stays valid
// UTF-8.
func (b *Builder) TruncateContext(text string) string {
	if len(text) <= b.contextLimit {
		return text
	}
	count := 0
	for i := range text {
		if count == b.contextLimit {
			return text[:i]
		}
		count++
	}
	return text
}

func (b *Builder) instruction(userTurns int) string {
	switch {
	case userTurns < b.earlyTurns:
		return instructionEarly
	case userTurns < b.lateTurns:
		return instructionMid
	default:
		return instructionLate
	}
}

// Question builds the "ask the next question" prompt from the session's
// accumulated state. The transcript is replayed verbatim.
func (b *Builder) Question(sess *session.Session) (string, error) {
	data := templateData{
		Profile:     b.profile,
		Context:     b.TruncateContext(sess.ContextText),
		Transcript:  sess.Transcript,
		Instruction: b.instruction(sess.UserTurns),
	}

	var buf bytes.Buffer
	if err := b.questionTmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to build question prompt", goerr.V("session_id", sess.ID))
	}
	return strings.TrimSpace(buf.String()), nil
}

// Report builds the final report prompt.
func (b *Builder) Report(sess *session.Session) (string, error) {
	data := templateData{
		Profile:    b.profile,
		Context:    b.TruncateContext(sess.ContextText),
		Transcript: sess.Transcript,
	}

	var buf bytes.Buffer
	if err := b.reportTmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to build report prompt", goerr.V("session_id", sess.ID))
	}
	return strings.TrimSpace(buf.String()), nil
}
