package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) Classify(ctx context.Context, emailText string) (Verdict, error) {
	return classifyWith(ctx, emailText, c.generate)
}

// generate uses /api/generate in non-streaming JSON mode.
func (c *ollamaClient) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"system": systemPrompt,
		"prompt": prompt,
		"format": "json",
		"stream": false,
	}
	var parsed struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := postJSON(ctx, c.client, "ollama", c.host+"/api/generate", nil, payload, &parsed); err != nil {
		return "", err
	}
	answer := strings.TrimSpace(parsed.Response)
	if answer == "" {
		return "", errors.New("ollama returned an empty response")
	}
	return answer, nil
}
