package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/config"
	"github.com/EndrioAlberton/teste-ia/internal/llm"
)

type stubClassifier struct {
	mu      sync.Mutex
	verdict llm.Verdict
	err     error
	panics  bool
	emails  []string
}

func (c *stubClassifier) Name() string { return "stub" }

func (c *stubClassifier) Classify(_ context.Context, emailText string) (llm.Verdict, error) {
	if c.panics {
		panic("boom")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emails = append(c.emails, emailText)
	return c.verdict, c.err
}

func (c *stubClassifier) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.emails...)
}

func newTestServer(t *testing.T, classifier llm.Classifier) *httptest.Server {
	t.Helper()
	cfg := &config.Server{
		Port:               "0",
		APIPrefix:          "/api",
		RateLimitPerMinute: 100,
		PreviewLimit:       500,
		LLMProvider:        config.ProviderOllama,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(cfg, classifier, logger).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postClassify(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/classify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload.Error
}

func TestClassifyReturnsVerdictWithPreview(t *testing.T) {
	classifier := &stubClassifier{verdict: llm.Verdict{
		Category:       "Produtivo",
		Confidence:     92,
		Rationale:      "Pedido de suporte",
		SuggestedReply: "Vamos verificar.",
	}}
	srv := newTestServer(t, classifier)

	email := strings.Repeat("a", 600)
	resp := postClassify(t, srv, fmt.Sprintf(`{"email_text":"  %s  "}`, email))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Classification-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var result classify.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Produtivo", result.Category)
	assert.Equal(t, 92, result.Confidence)
	assert.Equal(t, "Vamos verificar.", result.SuggestedReply)
	assert.Equal(t, strings.Repeat("a", 500)+"...", result.OriginalEmail)
	seen := classifier.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, email, seen[0], "email is trimmed before classification")
}

func TestClassifyRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "invalid json", body: `{"email_text":`, want: "Invalid JSON"},
		{name: "wrong type", body: `{"email_text":42}`, want: "Invalid JSON"},
		{name: "missing field", body: `{}`, want: "Campo email_text é obrigatório"},
		{name: "blank field", body: `{"email_text":"   "}`, want: "Campo email_text é obrigatório"},
		{name: "too short", body: `{"email_text":"  olá!  "}`, want: "Email muito curto. Forneça mais conteúdo."},
	}
	classifier := &stubClassifier{}
	srv := newTestServer(t, classifier)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postClassify(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decodeError(t, resp))
		})
	}
	assert.Empty(t, classifier.seen())
}

func TestClassifyCountsCharactersNotBytes(t *testing.T) {
	classifier := &stubClassifier{verdict: llm.Verdict{Category: "Improdutivo"}}
	srv := newTestServer(t, classifier)

	resp := postClassify(t, srv, `{"email_text":"ãéíóúçãéíó"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClassifyDegradesModelFailures(t *testing.T) {
	tests := []struct {
		name       string
		classifier llm.Classifier
		wantReply  string
		wantReason string
	}{
		{
			name:       "no model",
			classifier: nil,
			wantReply:  "Modelo de linguagem não configurado. Configure LLM_PROVIDER.",
			wantReason: "LLM_PROVIDER não configurado",
		},
		{
			name:       "unparsable answer",
			classifier: &stubClassifier{err: fmt.Errorf("%w: unexpected end of JSON input", llm.ErrMalformedResponse)},
			wantReply:  "Erro ao processar resposta da IA.",
			wantReason: "Erro no formato da resposta: malformed classification response: unexpected end of JSON input",
		},
		{
			name:       "transport failure",
			classifier: &stubClassifier{err: errors.New("connection refused")},
			wantReply:  "Erro ao comunicar com a IA: connection refused",
			wantReason: "connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.classifier)
			resp := postClassify(t, srv, `{"email_text":"Preciso de ajuda com meu acesso."}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var result classify.Result
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			assert.Equal(t, "Erro", result.Category)
			assert.Zero(t, result.Confidence)
			assert.Equal(t, tt.wantReply, result.SuggestedReply)
			assert.Equal(t, tt.wantReason, result.Rationale)
			assert.Equal(t, "Preciso de ajuda com meu acesso.", result.OriginalEmail)
		})
	}
}

func TestClassifyRateLimited(t *testing.T) {
	cfg := &config.Server{APIPrefix: "/api", RateLimitPerMinute: 1, LLMProvider: config.ProviderNone}
	srv := httptest.NewServer(New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes())
	defer srv.Close()

	first := postClassify(t, srv, `{"email_text":"Preciso de ajuda com meu acesso."}`)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := postClassify(t, srv, `{"email_text":"Preciso de ajuda com meu acesso."}`)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "limite de requisições excedido", decodeError(t, second))
}

func TestClassifyPanicBecomesJSONError(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{panics: true})

	resp := postClassify(t, srv, `{"email_text":"Preciso de ajuda com meu acesso."}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Erro interno: boom", decodeError(t, resp))
}

func TestClassifyPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/classify", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestHealthReportsModelConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		classifier llm.Classifier
		want       string
	}{
		{name: "configured", classifier: &stubClassifier{}, want: "configurada"},
		{name: "not configured", classifier: nil, want: "não configurada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.classifier)
			resp, err := http.Get(srv.URL + "/api/health")
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			var status classify.HealthStatus
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
			assert.Equal(t, classify.HealthStatus{Status: "online", ModelAPI: tt.want, Message: "Backend está funcionando!"}, status)
			assert.True(t, status.Online())
		})
	}
}

func TestServiceSatisfiesClassifyClient(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{verdict: llm.Verdict{Category: "Improdutivo", Confidence: 70, SuggestedReply: "Obrigado!"}})

	client, err := classify.New(classify.Config{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	result, err := client.Classify(context.Background(), "Feliz aniversário para toda a equipe!")
	require.NoError(t, err)
	assert.Equal(t, "Improdutivo", result.Category)
	assert.Equal(t, "Feliz aniversário para toda a equipe!", result.OriginalEmail)

	_, err = client.Classify(context.Background(), "curto")
	var serverErr *classify.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.StatusCode)
	assert.Equal(t, "Email muito curto. Forneça mais conteúdo.", serverErr.Message)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 3))
	assert.Equal(t, "ab...", preview("abc", 2))
	assert.Equal(t, "çã...", preview("çãé", 2))
}
