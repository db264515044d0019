package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

var databricksDefaults = Options{Temperature: Temperature(0.2), MaxTokens: 500}

// Databricks calls a model-serving endpoint with a personal access token.
// The endpoint speaks the OpenAI chat payload.
type Databricks struct {
	chat       chatClient
	configured bool
}

func NewDatabricks(log *logger.Logger, host, token, endpoint string, timeout time.Duration) *Databricks {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	endpoint = strings.TrimSpace(endpoint)
	token = strings.TrimSpace(token)
	url := fmt.Sprintf("%s/serving-endpoints/%s/invocations", host, endpoint)
	return &Databricks{
		chat:       newChatClient(log, "Databricks", url, token, timeout),
		configured: host != "" && endpoint != "" && token != "",
	}
}

func (d *Databricks) Call(ctx context.Context, prompt string, opts Options) (string, error) {
	if !d.configured {
		return "", &Error{Kind: KindConfig, Provider: d.chat.provider, Message: "Databricks HOST, PAT, or ENDPOINT not configured"}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", &Error{Kind: KindInput, Provider: d.chat.provider, Err: errEmptyPrompt}
	}
	opts = opts.withDefaults(databricksDefaults)
	return d.chat.do(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: prompt},
		},
		Temperature: opts.temperature(),
		MaxTokens:   opts.MaxTokens,
	}, true)
}
