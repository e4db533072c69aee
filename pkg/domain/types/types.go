package types

import "github.com/google/uuid"

// SessionID identifies one diagnostic conversation. It is the only lookup
// key a client holds; it must be echoed back on every call after start.
type SessionID string

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func (x SessionID) String() string {
	return string(x)
}

// Stage represents the phase of the diagnostic state machine. Stages are
// ordered and never regress within a session.
type Stage string

const (
	StageIntake    Stage = "intake"
	StageNarrowing Stage = "narrowing"
	StageDeepDive  Stage = "deep_dive"
	StageReport    Stage = "report"
)

func (x Stage) String() string {
	return string(x)
}

var stageOrder = map[Stage]int{
	StageIntake:    0,
	StageNarrowing: 1,
	StageDeepDive:  2,
	StageReport:    3,
}

// Before reports whether x precedes other in the stage ordering.
func (x Stage) Before(other Stage) bool {
	return stageOrder[x] < stageOrder[other]
}

// Terminal reports whether the stage accepts no further questions.
func (x Stage) Terminal() bool {
	return x == StageReport
}

// Verdict is the terminal judgment of a diagnostic session.
type Verdict string

const (
	VerdictYes Verdict = "YES"
	VerdictNo  Verdict = "NO"
)

func (x Verdict) String() string {
	return string(x)
}

// Validate checks the verdict is one of the two allowed values.
func (x Verdict) Validate() bool {
	return x == VerdictYes || x == VerdictNo
}

// Role tags a transcript message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (x Role) String() string {
	return string(x)
}
