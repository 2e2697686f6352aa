package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(Config{BaseURL: server.URL + "/api/", HTTPClient: server.Client()})
	require.NoError(t, err)
	return client, server
}

func TestClassifySuccess(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/classify", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]any{"email_text": "Preciso de ajuda com o sistema, por favor."}, payload)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"categoria":"Produtivo","confianca":92,"resposta_sugerida":"Obrigado, vamos analisar."}`))
	})

	result, err := client.Classify(context.Background(), "Preciso de ajuda com o sistema, por favor.")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Result{
		Category:       CategoryProductive,
		Confidence:     92,
		SuggestedReply: "Obrigado, vamos analisar.",
	}, result)
}

func TestClassifyOptionalFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"categoria":"Improdutivo","confianca":71,"razao":"Mensagem de felicitação.","resposta_sugerida":"Obrigado!","email_original":"Feliz natal..."}`))
	})

	result, err := client.Classify(context.Background(), "Feliz natal a toda a equipe!")
	require.NoError(t, err)
	assert.Equal(t, "Mensagem de felicitação.", result.Rationale)
	assert.Equal(t, "Feliz natal...", result.OriginalEmail)
}

func TestClassifyServerErrorField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"limite de requisições excedido"}`))
	})

	_, err := client.Classify(context.Background(), "Preciso de ajuda com o sistema.")
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusTooManyRequests, serverErr.StatusCode)
	assert.Equal(t, "limite de requisições excedido", serverErr.Message)
}

func TestClassifyErrorFieldWithOKStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"cota esgotada"}`))
	})

	_, err := client.Classify(context.Background(), "Preciso de ajuda com o sistema.")
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "cota esgotada", serverErr.Message)
}

func TestClassifyServerErrorWithoutBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Classify(context.Background(), "Preciso de ajuda com o sistema.")
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Empty(t, serverErr.Message)
	assert.Equal(t, http.StatusBadGateway, serverErr.StatusCode)
}

func TestClassifyConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client, err := New(Config{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), "Preciso de ajuda com o sistema.")
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestClassifyUndecodableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.Classify(context.Background(), "Preciso de ajuda com o sistema.")
	var unknownErr *UnknownError
	require.ErrorAs(t, err, &unknownErr)
	var serverErr *ServerError
	assert.False(t, errors.As(err, &serverErr))
}

func TestHealthOnline(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"online","gemini_api":"configurada","message":"ok"}`))
	})

	status := client.Health(context.Background())
	assert.Equal(t, HealthStatus{Status: "online", ModelAPI: "configurada", Message: "ok"}, status)
	assert.True(t, status.Online())
}

func TestHealthOfflineFallbacks(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		base := server.URL
		server.Close()
		client, err := New(Config{BaseURL: base, Timeout: time.Second})
		require.NoError(t, err)
		status := client.Health(context.Background())
		assert.Equal(t, OfflineStatus(), status)
		assert.False(t, status.Online())
	})
	t.Run("bad status", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		assert.Equal(t, OfflineStatus(), client.Health(context.Background()))
	})
	t.Run("bad body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`nope`))
		})
		assert.Equal(t, OfflineStatus(), client.Health(context.Background()))
	})
}

func TestNewValidatesBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{"empty", "", true},
		{"no scheme", "localhost:8080", true},
		{"ftp", "ftp://example.com", true},
		{"http", "http://localhost:8080/api", false},
		{"https trailing slash", "https://example.com/api/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(Config{BaseURL: tt.base})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, client.BaseURL()[len(client.BaseURL())-1:], "/")
		})
	}
}

func TestPickHTTPClientDefaults(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	assert.Same(t, custom, pickHTTPClient(custom, time.Second))
	assert.Equal(t, defaultHTTPTimeout, pickHTTPClient(nil, 0).Timeout)
	assert.Equal(t, 5*time.Second, pickHTTPClient(nil, 5*time.Second).Timeout)
}
