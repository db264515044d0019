package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

var geminiDefaults = Options{Temperature: Temperature(0.7), MaxTokens: 2048}

type Gemini struct {
	log       *logger.Logger
	client    *genai.Client
	modelName string
}

func NewGemini(ctx context.Context, log *logger.Logger, apiKey, modelName string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &Error{Kind: KindConfig, Provider: "Gemini", Message: "GEMINI_API_KEY not configured"}
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash-lite"
	}
	return &Gemini{
		log:       log.With("component", "llm", "provider", "Gemini"),
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *Gemini) Close() {
	g.client.Close()
}

func (g *Gemini) Call(ctx context.Context, prompt string, opts Options) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", &Error{Kind: KindInput, Provider: "Gemini", Err: errEmptyPrompt}
	}
	opts = opts.withDefaults(geminiDefaults)

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(float32(opts.temperature()))
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(int32(opts.MaxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.log.Error("Gemini request failed", "error", err)
		return "", &Error{Kind: KindTransport, Provider: "Gemini", Message: "failed to generate content", Err: err}
	}
	text := firstText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &Error{Kind: KindEmpty, Provider: "Gemini", Message: "no content generated"}
	}
	return text, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Unconfigured returns a gateway that fails every call with a config error.
// The server stays up so the UI can show the message.
func Unconfigured(provider string, cause error) Gateway {
	return Func(func(context.Context, string, Options) (string, error) {
		return "", &Error{Kind: KindConfig, Provider: provider, Message: "gateway not configured", Err: cause}
	})
}
