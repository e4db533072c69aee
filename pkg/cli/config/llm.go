package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
)

// LLMCfg selects a model provider for the interview. Exactly one provider
// is picked by project ID: Claude on Vertex AI when claude-project-id is
// set, Gemini otherwise. A missing configuration is not fatal at startup;
// the caller decides how to degrade.
type LLMCfg struct {
	claudeModel     string
	claudeProjectID string
	claudeLocation  string

	geminiModel     string
	geminiProjectID string
	geminiLocation  string
}

func (x *LLMCfg) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model name",
			Sources:     cli.EnvVars("FITLENS_CLAUDE_MODEL"),
			Value:       "claude-sonnet-4@20250514",
			Destination: &x.claudeModel,
			Category:    "Claude",
		},
		&cli.StringFlag{
			Name:        "claude-project-id",
			Usage:       "Google Cloud Project ID for Claude Vertex AI",
			Sources:     cli.EnvVars("FITLENS_CLAUDE_PROJECT_ID"),
			Destination: &x.claudeProjectID,
			Category:    "Claude",
		},
		&cli.StringFlag{
			Name:        "claude-location",
			Usage:       "Google Cloud location for Claude Vertex AI",
			Sources:     cli.EnvVars("FITLENS_CLAUDE_LOCATION"),
			Value:       "us-central1",
			Destination: &x.claudeLocation,
			Category:    "Claude",
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Sources:     cli.EnvVars("FITLENS_GEMINI_MODEL"),
			Value:       "gemini-2.0-flash",
			Destination: &x.geminiModel,
			Category:    "Gemini",
		},
		&cli.StringFlag{
			Name:        "gemini-project-id",
			Usage:       "GCP Project ID for Vertex AI",
			Sources:     cli.EnvVars("FITLENS_GEMINI_PROJECT_ID"),
			Destination: &x.geminiProjectID,
			Category:    "Gemini",
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "GCP Location for Vertex AI",
			Sources:     cli.EnvVars("FITLENS_GEMINI_LOCATION"),
			Value:       "us-central1",
			Destination: &x.geminiLocation,
			Category:    "Gemini",
		},
	}
}

func (x LLMCfg) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("claude_model", x.claudeModel),
		slog.String("claude_project_id", x.claudeProjectID),
		slog.String("gemini_model", x.geminiModel),
		slog.String("gemini_project_id", x.geminiProjectID),
	)
}

func (x *LLMCfg) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if x.claudeProjectID != "" {
		client, err := claude.NewWithVertex(ctx, x.claudeLocation, x.claudeProjectID,
			claude.WithVertexModel(x.claudeModel),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Claude Vertex AI client",
				goerr.V("projectID", x.claudeProjectID),
				goerr.V("location", x.claudeLocation),
				goerr.V("model", x.claudeModel))
		}
		return client, nil
	}

	if x.geminiProjectID != "" {
		client, err := gemini.New(ctx, x.geminiProjectID, x.geminiLocation,
			gemini.WithModel(x.geminiModel),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create vertex ai client",
				goerr.V("projectID", x.geminiProjectID),
				goerr.V("location", x.geminiLocation),
				goerr.V("model", x.geminiModel))
		}
		return client, nil
	}

	return nil, goerr.New("no LLM provider configured, set claude-project-id or gemini-project-id")
}
