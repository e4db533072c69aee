package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/fitlens-dev/fitlens/pkg/domain/interfaces"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/errs"
	"github.com/fitlens-dev/fitlens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// ExtractJSON recovers the JSON object embedded in free-form model output.
// Models wrap payloads in prose or code fences no matter how firmly the
// prompt forbids it, so the contract is: slice from the first '{' to the
// last '}' and parse strictly.
func ExtractJSON(raw string) ([]byte, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, goerr.New("no JSON object in model output",
			goerr.V("output_length", len(raw)), goerr.T(errs.TagInvalidLLMResponse))
	}
	return []byte(raw[start : end+1]), nil
}

type askConfig[T any] struct {
	validate func(v *T) error
}

type AskOption[T any] func(*askConfig[T])

// WithValidate adds a shape check beyond strict JSON parsing. A validation
// failure is reported like any other unusable response.
func WithValidate[T any](f func(v *T) error) AskOption[T] {
	return func(c *askConfig[T]) {
		c.validate = f
	}
}

// Ask sends a single prompt and decodes one typed JSON object from the
// response. There is no retry: the model is unreliable by assumption and
// callers hold schema-valid fallback content for every call site, so one
// failed call falls back immediately instead of stacking latency.
func Ask[T any](ctx context.Context, client interfaces.LLMClient, prompt string, opts ...AskOption[T]) (*T, error) {
	logger := logging.From(ctx)

	config := &askConfig[T]{}
	for _, opt := range opts {
		opt(config)
	}

	ssn, err := client.NewSession(ctx, gollem.WithSessionContentType(gollem.ContentTypeJSON))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session", goerr.T(errs.TagExternal))
	}

	resp, err := ssn.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, goerr.Wrap(err, "LLM call timed out", goerr.T(errs.TagTimeout))
		}
		return nil, goerr.Wrap(err, "failed to generate content", goerr.T(errs.TagExternal))
	}

	if len(resp.Texts) == 0 || resp.Texts[0] == "" {
		return nil, goerr.New("empty response from LLM", goerr.T(errs.TagInvalidLLMResponse))
	}

	text := resp.Texts[0]
	payload, err := ExtractJSON(text)
	if err != nil {
		logger.Debug("no JSON object in model output", "text", text)
		return nil, err
	}

	var result T
	if err := json.Unmarshal(payload, &result); err != nil {
		logger.Debug("failed to unmarshal model output", "text", text, "error", err)
		return nil, goerr.Wrap(err, "failed to parse model output",
			goerr.T(errs.TagInvalidLLMResponse))
	}

	if config.validate != nil {
		if err := config.validate(&result); err != nil {
			logger.Debug("model output failed validation", "result", result, "error", err)
			return nil, goerr.Wrap(err, "model output failed validation",
				goerr.T(errs.TagInvalidLLMResponse))
		}
	}

	return &result, nil
}
