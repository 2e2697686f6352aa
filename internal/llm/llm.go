// Package llm asks a language model to classify an email.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "ministral-3:latest"
	defaultOpenAIBase  = "https://api.openai.com/v1"
	defaultOpenAIModel = "gpt-4o-mini"
	// Emails past this size are clipped before prompting.
	maxEmailChars = 60_000
)

const defaultLLMHTTPTimeout = 3 * time.Minute

// Providers accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// ErrEmptyEmail is returned when there is nothing to classify.
var ErrEmptyEmail = errors.New("email text empty; cannot classify")

// Config describes how to build a classifier.
type Config struct {
	Provider   string
	Model      string
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// Verdict is the model's answer for one email.
type Verdict struct {
	Category       string `json:"categoria"`
	Confidence     int    `json:"confianca"`
	Rationale      string `json:"razao"`
	SuggestedReply string `json:"resposta_sugerida"`
}

// Classifier labels an email as Produtivo or Improdutivo and drafts a reply.
type Classifier interface {
	Classify(ctx context.Context, emailText string) (Verdict, error)
	Name() string
}

// New builds the classifier for cfg.Provider.
func New(cfg Config) (Classifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama, "":
		host := strings.TrimRight(cfg.Endpoint, "/")
		if host == "" {
			host = defaultOllamaHost
		}
		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}
		return &ollamaClient{host: host, model: model, client: pickHTTPClient(cfg.HTTPClient)}, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("openai: api key is required")
		}
		base := strings.TrimRight(cfg.Endpoint, "/")
		if base == "" {
			base = defaultOpenAIBase
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return &openAIClient{apiKey: cfg.APIKey, model: model, base: base, client: pickHTTPClient(cfg.HTTPClient)}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Local models often need more than a minute; callers cancel through ctx.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}
