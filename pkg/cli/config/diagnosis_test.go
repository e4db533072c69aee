package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/fitlens-dev/fitlens/pkg/cli/config"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/service/prompt"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

func TestDiagnosisConfig(t *testing.T) {
	cfg := &config.Diagnosis{}

	app := &cli.Command{
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test",
		"--min-turns", "2",
		"--max-turns", "8",
		"--llm-timeout", "10s",
		"--early-turns", "1",
		"--late-turns", "2",
	})
	gt.NoError(t, err)

	policy := cfg.Policy()
	gt.Equal(t, policy.MinTurns, 2)
	gt.Equal(t, policy.MaxTurns, 8)
	gt.Equal(t, policy.LLMTimeout, 10*time.Second)
}

func TestDiagnosisTurnPhasesReachPromptBuilder(t *testing.T) {
	cfg := &config.Diagnosis{}

	app := &cli.Command{
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test",
		"--early-turns", "1",
		"--late-turns", "2",
	})
	gt.NoError(t, err)

	opts, err := cfg.PromptOptions()
	gt.NoError(t, err)

	b, err := prompt.New(opts...)
	gt.NoError(t, err)

	sess := session.New(context.Background(), "spreadsheet chaos")
	sess.UserTurns = 2

	p, err := b.Question(sess)
	gt.NoError(t, err)
	gt.S(t, p).Contains("You must conclude now")
}
