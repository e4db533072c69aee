package session

import (
	"github.com/fitlens-dev/fitlens/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Report is the terminal structured output of a session. It is produced
// exactly once and never mutated afterwards.
type Report struct {
	Verdict   types.Verdict `json:"verdict"`
	Summary   string        `json:"summary"`
	Strengths []string      `json:"strengths"`
	Risks     []string      `json:"risks"`
	NextSteps []string      `json:"nextSteps"`
}

// Normalize coerces missing optional arrays to empty slices so clients
// never see null array fields.
func (r *Report) Normalize() {
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.Risks == nil {
		r.Risks = []string{}
	}
	if r.NextSteps == nil {
		r.NextSteps = []string{}
	}
}

// Validate checks the required shape: a two-valued verdict and a non-empty
// summary. Array lengths are bounded by the prompt, not enforced here.
func (r *Report) Validate() error {
	if !r.Verdict.Validate() {
		return goerr.New("report verdict must be YES or NO", goerr.V("verdict", r.Verdict))
	}
	if r.Summary == "" {
		return goerr.New("report summary is empty")
	}
	return nil
}
