package config

import (
	"log/slog"
	"time"

	"github.com/fitlens-dev/fitlens/pkg/service/prompt"
	"github.com/fitlens-dev/fitlens/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Diagnosis tunes the interview pacing and session lifecycle.
type Diagnosis struct {
	minTurns      int
	maxTurns      int
	deepDiveTurns int
	llmTimeout    time.Duration
	contextLimit  int
	earlyTurns    int
	lateTurns     int
	sessionTTL    time.Duration
	sweepInterval time.Duration
	profilePath   string
}

func (x *Diagnosis) Flags() []cli.Flag {
	defaults := usecase.DefaultPolicy()
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "min-turns",
			Usage:       "Minimum user turns before a verdict can be issued",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_MIN_TURNS"),
			Value:       defaults.MinTurns,
			Destination: &x.minTurns,
		},
		&cli.IntFlag{
			Name:        "max-turns",
			Usage:       "User turn count that forces a verdict",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_MAX_TURNS"),
			Value:       defaults.MaxTurns,
			Destination: &x.maxTurns,
		},
		&cli.IntFlag{
			Name:        "deep-dive-turns",
			Usage:       "User turn count at which the interview moves to deep dive",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_DEEP_DIVE_TURNS"),
			Value:       defaults.DeepDiveTurns,
			Destination: &x.deepDiveTurns,
		},
		&cli.DurationFlag{
			Name:        "llm-timeout",
			Usage:       "Timeout for a single model call",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_LLM_TIMEOUT"),
			Value:       defaults.LLMTimeout,
			Destination: &x.llmTimeout,
		},
		&cli.IntFlag{
			Name:        "context-limit",
			Usage:       "Maximum characters of background context fed to prompts",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_CONTEXT_LIMIT"),
			Value:       prompt.DefaultContextLimit,
			Destination: &x.contextLimit,
		},
		&cli.IntFlag{
			Name:        "early-turns",
			Usage:       "User turn count until which questions only clarify, never conclude",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_EARLY_TURNS"),
			Value:       prompt.DefaultEarlyTurns,
			Destination: &x.earlyTurns,
		},
		&cli.IntFlag{
			Name:        "late-turns",
			Usage:       "User turn count from which questions must conclude",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_LATE_TURNS"),
			Value:       prompt.DefaultLateTurns,
			Destination: &x.lateTurns,
		},
		&cli.DurationFlag{
			Name:        "session-ttl",
			Usage:       "Idle duration after which a session is evicted",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_SESSION_TTL"),
			Value:       30 * time.Minute,
			Destination: &x.sessionTTL,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Interval of the background sweep for expired sessions",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_SWEEP_INTERVAL"),
			Value:       5 * time.Minute,
			Destination: &x.sweepInterval,
		},
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "Path to a consultant profile YAML (embedded default when empty)",
			Category:    "Diagnosis",
			Sources:     cli.EnvVars("FITLENS_PROFILE"),
			Destination: &x.profilePath,
		},
	}
}

func (x Diagnosis) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("min_turns", x.minTurns),
		slog.Int("max_turns", x.maxTurns),
		slog.Int("deep_dive_turns", x.deepDiveTurns),
		slog.Duration("llm_timeout", x.llmTimeout),
		slog.Int("context_limit", x.contextLimit),
		slog.Int("early_turns", x.earlyTurns),
		slog.Int("late_turns", x.lateTurns),
		slog.Duration("session_ttl", x.sessionTTL),
		slog.Duration("sweep_interval", x.sweepInterval),
		slog.String("profile", x.profilePath),
	)
}

func (x *Diagnosis) Policy() usecase.Policy {
	return usecase.Policy{
		MinTurns:      x.minTurns,
		MaxTurns:      x.maxTurns,
		DeepDiveTurns: x.deepDiveTurns,
		LLMTimeout:    x.llmTimeout,
	}
}

func (x *Diagnosis) SessionTTL() time.Duration {
	return x.sessionTTL
}

func (x *Diagnosis) SweepInterval() time.Duration {
	return x.sweepInterval
}

// PromptOptions builds the prompt builder options, loading a profile from
// disk when one is given.
func (x *Diagnosis) PromptOptions() ([]prompt.Option, error) {
	opts := []prompt.Option{
		prompt.WithContextLimit(x.contextLimit),
		prompt.WithTurnPhases(x.earlyTurns, x.lateTurns),
	}
	if x.profilePath != "" {
		profile, err := prompt.LoadProfile(x.profilePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, prompt.WithProfile(profile))
	}
	return opts, nil
}
