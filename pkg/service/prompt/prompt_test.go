package prompt_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/service/prompt"
	"github.com/m-mizutani/gt"
	"os"
)

func newSession(t *testing.T, contextText string) *session.Session {
	t.Helper()
	return session.New(context.Background(), contextText)
}

func TestQuestionPrompt(t *testing.T) {
	b, err := prompt.New()
	gt.NoError(t, err)

	ctx := context.Background()
	sess := newSession(t, "We run a 3-person bakery and answer the same emails by hand.")
	sess.AppendAssistant(ctx, "What does a typical day look like?")
	sess.AppendUser(ctx, "About 40 repeated questions a day.")

	p, err := b.Question(sess)
	gt.NoError(t, err)

	gt.S(t, p).Contains("3-person bakery")
	gt.S(t, p).Contains("assistant: What does a typical day look like?")
	gt.S(t, p).Contains("user: About 40 repeated questions a day.")
	gt.S(t, p).Contains(`"readyForReport"`)
	gt.S(t, p).Contains("Do not wrap the JSON in markdown code fences")
}

func TestQuestionPhaseInstruction(t *testing.T) {
	b, err := prompt.New(prompt.WithTurnPhases(2, 4))
	gt.NoError(t, err)

	sess := newSession(t, "context")

	early, err := b.Question(sess)
	gt.NoError(t, err)
	gt.S(t, early).Contains("Do not conclude yet")

	sess.UserTurns = 3
	mid, err := b.Question(sess)
	gt.NoError(t, err)
	gt.S(t, mid).Contains("Drill toward the root cause")

	sess.UserTurns = 5
	late, err := b.Question(sess)
	gt.NoError(t, err)
	gt.S(t, late).Contains("You must conclude now")
}

func TestContextTruncation(t *testing.T) {
	b, err := prompt.New(prompt.WithContextLimit(100))
	gt.NoError(t, err)

	long := strings.Repeat("x", 500)
	gt.Equal(t, len(b.TruncateContext(long)), 100)
	gt.Equal(t, b.TruncateContext("short"), "short")

	sess := newSession(t, long)
	p, err := b.Question(sess)
	gt.NoError(t, err)
	gt.False(t, strings.Contains(p, strings.Repeat("x", 101)))
}

func TestContextTruncationKeepsRuneBoundary(t *testing.T) {
	b, err := prompt.New(prompt.WithContextLimit(10))
	gt.NoError(t, err)

	got := b.TruncateContext(strings.Repeat("a", 9) + "日本語")
	gt.True(t, utf8.ValidString(got))
	gt.Equal(t, got, strings.Repeat("a", 9)+"日")
}

func TestContextTruncationCountsCharacters(t *testing.T) {
	b, err := prompt.New(prompt.WithContextLimit(5))
	gt.NoError(t, err)

	// Five runes span fifteen bytes and must survive untouched.
	gt.Equal(t, b.TruncateContext("日本語日本"), "日本語日本")
	gt.Equal(t, b.TruncateContext("日本語日本語"), "日本語日本")
}

func TestReportPrompt(t *testing.T) {
	b, err := prompt.New()
	gt.NoError(t, err)

	ctx := context.Background()
	sess := newSession(t, "bakery email backlog")
	sess.AppendAssistant(ctx, "How many emails per day?")
	sess.AppendUser(ctx, "Around 40, mostly about opening hours.")

	p, err := b.Report(sess)
	gt.NoError(t, err)

	gt.S(t, p).Contains(`"verdict": "YES" or "NO"`)
	gt.S(t, p).Contains("grounded in something the client actually said")
	gt.S(t, p).Contains("user: Around 40, mostly about opening hours.")
	gt.S(t, p).Contains("Do not wrap the JSON in markdown code fences")
}

func TestDefaultProfile(t *testing.T) {
	p := prompt.DefaultProfile()
	gt.S(t, p.Name).NotEqual("")
	gt.S(t, p.Background).NotEqual("")
	gt.True(t, len(p.Skills) > 0)
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yml")
	body := "name: Jane Doe\nheadline: a data engineer\nbackground: |\n  I build pipelines.\nskills:\n  - ETL\n"
	gt.NoError(t, os.WriteFile(path, []byte(body), 0600))

	p, err := prompt.LoadProfile(path)
	gt.NoError(t, err)
	gt.Equal(t, p.Name, "Jane Doe")
	gt.A(t, p.Skills).Length(1)

	_, err = prompt.LoadProfile(filepath.Join(dir, "missing.yml"))
	gt.Error(t, err)

	bad := filepath.Join(dir, "bad.yml")
	gt.NoError(t, os.WriteFile(bad, []byte("headline: no name\n"), 0600))
	_, err = prompt.LoadProfile(bad)
	gt.Error(t, err)
}
