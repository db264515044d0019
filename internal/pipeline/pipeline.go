// Package pipeline turns free-text customer notes into story content by
// chaining prompt steps through an llm.Gateway. Every step that expects
// JSON returns an Outcome: a parsed value, or a placeholder when the model
// output could not be parsed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/storycraft-agent/internal/llm"
	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

// ErrInvalidInput marks blank or missing required inputs. It is returned
// before any network call.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type Pipeline struct {
	gw  llm.Gateway
	log *logger.Logger
}

func New(gw llm.Gateway, log *logger.Logger) *Pipeline {
	return &Pipeline{gw: gw, log: log.With("component", "pipeline")}
}

// Complete runs one step's prompt through the gateway and returns the raw
// model text.
func (p *Pipeline) Complete(ctx context.Context, step Step, prompt string) (string, error) {
	start := time.Now()
	text, err := p.gw.Call(ctx, prompt, step.Options)
	if err != nil {
		p.log.Error("LLM call failed", "step", step.Name, "error", err)
		return "", err
	}
	p.log.Debug("LLM call finished", "step", step.Name, "duration_ms", time.Since(start).Milliseconds(), "chars", len(text))
	return text, nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
