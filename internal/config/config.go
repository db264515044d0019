package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderPerplexity = "perplexity"
	ProviderDatabricks = "databricks"
	ProviderGemini     = "gemini"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Port    string
	LogMode string

	LLMProvider string
	LLMTimeout  time.Duration

	PerplexityAPIKey string
	PerplexityAPIURL string
	PerplexityModel  string

	DatabricksHost     string
	DatabricksToken    string
	DatabricksEndpoint string

	GeminiAPIKey string
	GeminiModel  string

	ExportScriptURL     string
	ValueStoryScriptURL string

	SessionStore string
	RedisAddr    string
	SessionTTL   time.Duration

	CORSOrigins []string
}

// Load reads an optional .env file and then the process environment.
// Missing LLM credentials are not an error here; the gateway reports them
// on first use.
func Load(files ...string) *Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// .env is optional
		_ = godotenv.Load(f)
	}

	port := str("PORT", "")
	if port == "" {
		port = str("DATABRICKS_APP_PORT", "8080")
	}

	return &Config{
		Port:    port,
		LogMode: str("LOG_MODE", "dev"),

		LLMProvider: strings.ToLower(str("LLM_PROVIDER", ProviderPerplexity)),
		LLMTimeout:  time.Duration(num("LLM_TIMEOUT_SECONDS", 120)) * time.Second,

		PerplexityAPIKey: str("PERPLEXITY_API_KEY", ""),
		PerplexityAPIURL: str("PERPLEXITY_API_URL", "https://api.perplexity.ai/chat/completions"),
		PerplexityModel:  str("PERPLEXITY_MODEL", "sonar"),

		DatabricksHost:     strings.TrimRight(str("DATABRICKS_HOST", ""), "/"),
		DatabricksToken:    str("DATABRICKS_TOKEN", ""),
		DatabricksEndpoint: str("DATABRICKS_ENDPOINT", ""),

		GeminiAPIKey: str("GEMINI_API_KEY", ""),
		GeminiModel:  str("GEMINI_MODEL", "gemini-2.5-flash-lite"),

		ExportScriptURL:     str("EXPORT_SCRIPT_URL", ""),
		ValueStoryScriptURL: str("VALUE_STORY_SCRIPT_URL", ""),

		SessionStore: strings.ToLower(str("SESSION_STORE", StoreMemory)),
		RedisAddr:    str("REDIS_ADDR", "localhost:6379"),
		SessionTTL:   time.Duration(num("SESSION_TTL_MINUTES", 240)) * time.Minute,

		CORSOrigins: list("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		}),
	}
}

func str(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func num(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func list(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
