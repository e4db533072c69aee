package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/domain/types"
	"github.com/fitlens-dev/fitlens/pkg/utils/clock"
	"github.com/m-mizutani/gt"
)

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return now })

	sess := session.New(ctx, "we answer the same emails by hand")
	gt.Equal(t, sess.Stage, types.StageIntake)
	gt.Equal(t, sess.UserTurns, 0)
	gt.Equal(t, sess.CreatedAt, now)

	sess.AppendAssistant(ctx, "What does a typical week look like?")
	gt.Equal(t, sess.UserTurns, 0)

	sess.AppendUser(ctx, "About 40 emails a day")
	gt.Equal(t, sess.UserTurns, 1)
	gt.A(t, sess.Transcript).Length(2)
	gt.Equal(t, sess.Transcript[1].Role, types.RoleUser)
}

func TestStageNeverRegresses(t *testing.T) {
	ctx := context.Background()
	sess := session.New(ctx, "")

	sess.Advance(types.StageDeepDive)
	gt.Equal(t, sess.Stage, types.StageDeepDive)

	sess.Advance(types.StageNarrowing)
	gt.Equal(t, sess.Stage, types.StageDeepDive)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sess := session.New(ctx, "")

	first := &session.Report{Verdict: types.VerdictYes, Summary: "good fit"}
	sess.Finalize(first)
	gt.Equal(t, sess.Stage, types.StageReport)
	gt.Equal(t, sess.Verdict, types.VerdictYes)

	sess.Finalize(&session.Report{Verdict: types.VerdictNo, Summary: "other"})
	gt.Equal(t, sess.Report, first)
	gt.Equal(t, sess.Verdict, types.VerdictYes)
}

func TestIdleSince(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return now })
	sess := session.New(ctx, "")

	gt.False(t, sess.IdleSince(now.Add(29*time.Minute), 30*time.Minute))
	gt.True(t, sess.IdleSince(now.Add(31*time.Minute), 30*time.Minute))
}

func TestReportValidate(t *testing.T) {
	r := &session.Report{Verdict: types.VerdictYes, Summary: "ok"}
	gt.NoError(t, r.Validate())

	r.Normalize()
	gt.A(t, r.Strengths).Length(0)
	gt.A(t, r.Risks).Length(0)
	gt.A(t, r.NextSteps).Length(0)

	bad := &session.Report{Verdict: "MAYBE", Summary: "ok"}
	gt.Error(t, bad.Validate())

	empty := &session.Report{Verdict: types.VerdictNo}
	gt.Error(t, empty.Validate())
}
