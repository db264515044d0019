package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

// Chat-completion wire types shared by the Perplexity and Databricks
// serving endpoints.
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      *bool         `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message,omitempty"`
		Text    string       `json:"text,omitempty"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatClient struct {
	log        *logger.Logger
	provider   string
	url        string
	token      string
	httpClient *http.Client
}

func newChatClient(log *logger.Logger, provider, url, token string, timeout time.Duration) chatClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return chatClient{
		log:        log.With("component", "llm", "provider", provider),
		provider:   provider,
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c chatClient) do(ctx context.Context, body chatRequest, allowText bool) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindInput, Provider: c.provider, Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return "", &Error{Kind: KindConfig, Provider: c.provider, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("LLM request failed", "error", err)
		return "", &Error{Kind: KindTransport, Provider: c.provider, Message: "network error", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Provider: c.provider, Message: "read response", Err: err}
	}

	c.log.Debug("LLM response",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"max_output", body.MaxTokens,
		"temperature", body.Temperature,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var errResp chatResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
			msg = msg + ". " + errResp.Error.Message
		}
		return "", &Error{Kind: KindStatus, Provider: c.provider, Status: resp.StatusCode, Message: msg}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &Error{Kind: KindEmpty, Provider: c.provider, Message: "malformed response", Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &Error{Kind: KindEmpty, Provider: c.provider, Message: fmt.Sprintf("no response received from %s API", c.provider)}
	}

	first := out.Choices[0]
	content := ""
	if first.Message != nil {
		content = first.Message.Content
	}
	if content == "" && allowText {
		content = first.Text
	}
	if strings.TrimSpace(content) == "" {
		return "", &Error{Kind: KindEmpty, Provider: c.provider, Message: fmt.Sprintf("no response content received from %s API", c.provider)}
	}
	return content, nil
}
