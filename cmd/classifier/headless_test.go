package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
)

type stubService struct {
	server *httptest.Server
	calls  atomic.Int32
	last   atomic.Value
}

func newStubService(t *testing.T, status int, body string) *stubService {
	t.Helper()
	s := &stubService{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/classify", func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		var req struct {
			EmailText string `json:"email_text"`
		}
		payload, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(payload, &req)
		s.last.Store(req.EmailText)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"online","gemini_api":"configurada","message":"Backend está funcionando!"}`)
	})
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *stubService) client(t *testing.T) classify.Client {
	t.Helper()
	client, err := classify.New(classify.Config{BaseURL: s.server.URL + "/api"})
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	return client
}

const productiveBody = `{"categoria":"Produtivo","confianca":92,"razao":"Pedido de suporte.","resposta_sugerida":"Obrigado, vamos analisar."}`

func TestHeadlessTextSuccess(t *testing.T) {
	svc := newStubService(t, http.StatusOK, productiveBody)
	var stdout, stderr bytes.Buffer

	code := runHeadless(context.Background(), svc.client(t), headlessInput{Text: "Preciso de ajuda com o sistema, por favor."}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"Categoria: Produtivo (requer ação ou resposta)", "Confiança: 92%", "Obrigado, vamos analisar."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if got := svc.last.Load(); got != "Preciso de ajuda com o sistema, por favor." {
		t.Fatalf("payload = %v", got)
	}
}

func TestHeadlessJSON(t *testing.T) {
	svc := newStubService(t, http.StatusOK, productiveBody)
	var stdout, stderr bytes.Buffer

	code := runHeadless(context.Background(), svc.client(t), headlessInput{Text: "Preciso de ajuda com o sistema.", JSON: true}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	var result classify.Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if result.Category != "Produtivo" || result.Confidence != 92 {
		t.Fatalf("result = %#v", result)
	}
}

func TestHeadlessServerError(t *testing.T) {
	svc := newStubService(t, http.StatusTooManyRequests, `{"error":"limite de requisições excedido"}`)
	var stdout, stderr bytes.Buffer

	code := runHeadless(context.Background(), svc.client(t), headlessInput{Text: "Preciso de ajuda com o sistema."}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if strings.TrimSpace(stderr.String()) != "limite de requisições excedido" {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestHeadlessValidationSkipsService(t *testing.T) {
	svc := newStubService(t, http.StatusOK, productiveBody)
	dir := t.TempDir()
	docx := filepath.Join(dir, "email.docx")
	if err := os.WriteFile(docx, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   headlessInput
		code int
		want string
	}{
		{"short text", headlessInput{Text: "curto"}, 1, "Por favor, insira um texto com pelo menos 10 caracteres."},
		{"unsupported file", headlessInput{File: docx}, 1, "Formato não suportado. Use .txt ou .pdf"},
		{"missing file", headlessInput{File: filepath.Join(dir, "nope.txt")}, 1, "Erro ao ler arquivo. Tente novamente."},
		{"both inputs", headlessInput{Text: "texto suficiente", File: docx}, 2, "use -text or -file, not both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runHeadless(context.Background(), svc.client(t), tt.in, &stdout, &stderr)
			if code != tt.code {
				t.Fatalf("exit code = %d, want %d", code, tt.code)
			}
			if strings.TrimSpace(stderr.String()) != tt.want {
				t.Fatalf("stderr = %q, want %q", stderr.String(), tt.want)
			}
		})
	}
	if svc.calls.Load() != 0 {
		t.Fatalf("service called %d times", svc.calls.Load())
	}
}

func TestHeadlessFile(t *testing.T) {
	svc := newStubService(t, http.StatusOK, `{"categoria":"Improdutivo","confianca":70,"resposta_sugerida":"Obrigado pela mensagem!"}`)
	path := filepath.Join(t.TempDir(), "email.txt")
	if err := os.WriteFile(path, []byte("Feliz natal a toda a equipe!"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer

	code := runHeadless(context.Background(), svc.client(t), headlessInput{File: path}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if got := svc.last.Load(); got != "Feliz natal a toda a equipe!" {
		t.Fatalf("payload = %v", got)
	}
	if !strings.Contains(stdout.String(), "não requer ação imediata") {
		t.Fatalf("output = %q", stdout.String())
	}
}

func TestHeadlessUnreadablePDF(t *testing.T) {
	svc := newStubService(t, http.StatusOK, productiveBody)
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer

	code := runHeadless(context.Background(), svc.client(t), headlessInput{File: path}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if got := strings.TrimSpace(stderr.String()); got != "Erro ao ler arquivo. Tente novamente." {
		t.Fatalf("stderr = %q", got)
	}
	if svc.calls.Load() != 0 {
		t.Fatal("an unreadable file must not reach the service")
	}
}
