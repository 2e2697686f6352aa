// Package classify talks to the remote email classification service.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	classifyPath = "/classify"
	healthPath   = "/health"

	defaultHTTPTimeout = 60 * time.Second
	maxErrorBody       = 64 * 1024
)

// Categories returned by the service. Anything else is a fallback/error label.
const (
	CategoryProductive   = "Produtivo"
	CategoryUnproductive = "Improdutivo"
)

// Result is the verdict for one submitted email.
type Result struct {
	Category       string `json:"categoria"`
	Confidence     int    `json:"confianca"`
	Rationale      string `json:"razao,omitempty"`
	SuggestedReply string `json:"resposta_sugerida"`
	OriginalEmail  string `json:"email_original,omitempty"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status   string `json:"status"`
	ModelAPI string `json:"gemini_api"`
	Message  string `json:"message"`
}

// Online reports whether the service answered the probe.
func (h HealthStatus) Online() bool {
	return h.Status != "" && h.Status != offlineStatus.Status
}

var offlineStatus = HealthStatus{
	Status:   "offline",
	ModelAPI: "desconhecido",
	Message:  "Não foi possível conectar ao backend",
}

// OfflineStatus is the synthetic status used when the probe cannot reach the service.
func OfflineStatus() HealthStatus { return offlineStatus }

// Client exposes the classification service.
type Client interface {
	Classify(ctx context.Context, emailText string) (Result, error)
	Health(ctx context.Context) HealthStatus
	BaseURL() string
}

// Config describes how to reach the service.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type httpClient struct {
	base   string
	client *http.Client
}

// New builds an HTTP client for the service rooted at cfg.BaseURL.
func New(cfg Config) (Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("classify: base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("classify: invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("classify: unsupported scheme %q", parsed.Scheme)
	}
	return &httpClient{base: base, client: pickHTTPClient(cfg.HTTPClient, cfg.Timeout)}, nil
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c *httpClient) BaseURL() string { return c.base }

// Classify posts emailText as the only payload field. Failures are
// *ServerError, *ConnectionError or *UnknownError.
func (c *httpClient) Classify(ctx context.Context, emailText string) (Result, error) {
	buf, err := json.Marshal(map[string]string{"email_text": emailText})
	if err != nil {
		return Result{}, &UnknownError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+classifyPath, bytes.NewReader(buf))
	if err != nil {
		return Result{}, &UnknownError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Result{}, &ServerError{StatusCode: resp.StatusCode, Message: errorField(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &ConnectionError{Err: err}
	}
	if message := errorField(body); message != "" {
		return Result{}, &ServerError{StatusCode: resp.StatusCode, Message: message}
	}
	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return Result{}, &UnknownError{Err: fmt.Errorf("decode classification: %w", err)}
	}
	log.Printf("[classify] %s -> %s (%d%%)", c.base+classifyPath, result.Category, result.Confidence)
	return result, nil
}

// Health never fails: any transport or decode problem yields OfflineStatus.
func (c *httpClient) Health(ctx context.Context) HealthStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+healthPath, nil)
	if err != nil {
		return OfflineStatus()
	}
	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[classify] health probe failed: %v", err)
		return OfflineStatus()
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("[classify] health probe returned %s", resp.Status)
		return OfflineStatus()
	}
	var status HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&status); err != nil {
		log.Printf("[classify] health probe decode: %v", err)
		return OfflineStatus()
	}
	return status
}

func errorField(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}
