package session

import (
	"context"
	"time"

	"github.com/fitlens-dev/fitlens/pkg/domain/types"
	"github.com/fitlens-dev/fitlens/pkg/utils/clock"
)

// Message is one role-tagged entry of a session transcript. Insertion
// order is significant: the transcript is replayed verbatim into every
// subsequent prompt.
type Message struct {
	Role      types.Role `json:"role"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// Session represents one user's diagnostic run. ContextText is immutable
// once set; Stage only moves forward; UserTurns only increments.
type Session struct {
	ID           types.SessionID `json:"id"`
	ContextText  string          `json:"context_text"`
	Stage        types.Stage     `json:"stage"`
	UserTurns    int             `json:"user_turns"`
	Transcript   []Message       `json:"transcript"`
	Verdict      types.Verdict   `json:"verdict,omitempty"`
	Report       *Report         `json:"report,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	LastActiveAt time.Time       `json:"last_active_at"`
}

// New creates a session in the intake stage with an empty transcript.
func New(ctx context.Context, contextText string) *Session {
	now := clock.Now(ctx)
	return &Session{
		ID:           types.NewSessionID(),
		ContextText:  contextText,
		Stage:        types.StageIntake,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Touch updates LastActiveAt. It must be called on every inbound call so
// the TTL sweep only evicts genuinely idle sessions.
func (s *Session) Touch(ctx context.Context) {
	s.LastActiveAt = clock.Now(ctx)
}

// AppendUser records an accepted user message and counts the turn.
func (s *Session) AppendUser(ctx context.Context, content string) {
	s.Transcript = append(s.Transcript, Message{
		Role:      types.RoleUser,
		Content:   content,
		CreatedAt: clock.Now(ctx),
	})
	s.UserTurns++
}

// AppendAssistant records an assistant message without counting a turn.
func (s *Session) AppendAssistant(ctx context.Context, content string) {
	s.Transcript = append(s.Transcript, Message{
		Role:      types.RoleAssistant,
		Content:   content,
		CreatedAt: clock.Now(ctx),
	})
}

// Advance moves the session to the given stage. Stage transitions are
// one-way; a request to move backwards is ignored.
func (s *Session) Advance(stage types.Stage) {
	if s.Stage.Before(stage) {
		s.Stage = stage
	}
}

// Finalize caches the report and enters the terminal stage. Further calls
// are no-ops so the first report is never overwritten.
func (s *Session) Finalize(report *Report) {
	if s.Report != nil {
		return
	}
	s.Report = report
	s.Verdict = report.Verdict
	s.Advance(types.StageReport)
}

// Terminal reports whether the session already holds a report.
func (s *Session) Terminal() bool {
	return s.Report != nil
}

// IdleSince reports whether the session has been inactive longer than ttl.
func (s *Session) IdleSince(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActiveAt) > ttl
}

// Clone returns a snapshot safe to hand outside the store's locks. The
// transcript slice is copied; the report is shared because it is immutable
// once set.
func (s *Session) Clone() *Session {
	copied := *s
	copied.Transcript = make([]Message, len(s.Transcript))
	copy(copied.Transcript, s.Transcript)
	return &copied
}
