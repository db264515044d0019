package llm

import (
	"context"
	"errors"
	"fmt"
)

// Options overrides the provider defaults for a single call. A nil
// Temperature or zero MaxTokens means "use the provider default"; a
// temperature of 0 is a valid setting.
type Options struct {
	Temperature *float64
	MaxTokens   int
}

// Temperature returns a pointer for Options.Temperature.
func Temperature(v float64) *float64 { return &v }

func (o Options) withDefaults(def Options) Options {
	if o.Temperature == nil {
		o.Temperature = def.Temperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = def.MaxTokens
	}
	return o
}

func (o Options) temperature() float64 {
	if o.Temperature == nil {
		return 0
	}
	return *o.Temperature
}

// Gateway sends one user prompt to a hosted model and returns the text of
// the first choice. Implementations never retry.
type Gateway interface {
	Call(ctx context.Context, prompt string, opts Options) (string, error)
}

// Func adapts a plain function to Gateway.
type Func func(ctx context.Context, prompt string, opts Options) (string, error)

func (f Func) Call(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

type Kind string

const (
	KindConfig    Kind = "config"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindEmpty     Kind = "empty"
	KindInput     Kind = "input"
)

type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s API error: %d. %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

var errEmptyPrompt = errors.New("prompt is empty")
