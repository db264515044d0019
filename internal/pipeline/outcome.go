package pipeline

type Status string

const (
	StatusParsed   Status = "parsed"
	StatusFallback Status = "fallback"
)

// Outcome tags a step result as either parsed from the model output or a
// placeholder substituted because parsing failed.
type Outcome[T any] struct {
	Value  T      `json:"value"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Parsed[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Status: StatusParsed}
}

func Fallback[T any](v T, reason string) Outcome[T] {
	return Outcome[T]{Value: v, Status: StatusFallback, Reason: reason}
}

func (o Outcome[T]) IsFallback() bool { return o.Status == StatusFallback }
