package llm

import (
	"context"
	"strings"
	"time"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

var perplexityDefaults = Options{Temperature: Temperature(0.2), MaxTokens: 1000}

// Perplexity calls the search-augmented chat-completions API.
type Perplexity struct {
	chat  chatClient
	model string
}

func NewPerplexity(log *logger.Logger, apiKey, url, model string, timeout time.Duration) *Perplexity {
	if model == "" {
		model = "sonar"
	}
	return &Perplexity{
		chat:  newChatClient(log, "Perplexity", strings.TrimSpace(url), strings.TrimSpace(apiKey), timeout),
		model: model,
	}
}

func (p *Perplexity) Call(ctx context.Context, prompt string, opts Options) (string, error) {
	if p.chat.token == "" || p.chat.url == "" {
		return "", &Error{Kind: KindConfig, Provider: p.chat.provider, Message: "Perplexity API key not configured"}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", &Error{Kind: KindInput, Provider: p.chat.provider, Err: errEmptyPrompt}
	}
	opts = opts.withDefaults(perplexityDefaults)
	stream := false
	return p.chat.do(ctx, chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.temperature(),
		MaxTokens:   opts.MaxTokens,
		Stream:      &stream,
	}, false)
}
