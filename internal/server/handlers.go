package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/llm"
)

const (
	minEmailChars       = 10
	defaultPreviewLimit = 500

	classificationIDHeader = "X-Classification-ID"

	errorCategory = "Erro"
)

type envelope map[string]any

type classifyRequest struct {
	EmailText *string `json:"email_text"`
}

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.errorResponse(w, r, http.StatusTooManyRequests, "limite de requisições excedido")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			s.errorResponse(w, r, http.StatusRequestEntityTooLarge, "Email muito grande.")
			return
		}
		s.errorResponse(w, r, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var emailText string
	if req.EmailText != nil {
		emailText = strings.TrimSpace(*req.EmailText)
	}
	if emailText == "" {
		s.errorResponse(w, r, http.StatusBadRequest, "Campo email_text é obrigatório")
		return
	}
	if utf8.RuneCountInString(emailText) < minEmailChars {
		s.errorResponse(w, r, http.StatusBadRequest, "Email muito curto. Forneça mais conteúdo.")
		return
	}

	result := s.verdictFor(r.Context(), emailText)
	result.OriginalEmail = preview(emailText, s.previewLimit())

	id := uuid.NewString()
	s.logger.Info("classified email",
		"classification_id", id,
		"categoria", result.Category,
		"confianca", result.Confidence,
		"chars", utf8.RuneCountInString(emailText),
	)
	headers := http.Header{}
	headers.Set(classificationIDHeader, id)
	if err := s.writeJSON(w, http.StatusOK, result, headers); err != nil {
		s.logError(r, err)
	}
}

// verdictFor asks the model for a verdict. Model failures are reported as a
// verdict in the "Erro" category rather than as an HTTP error.
func (s *Server) verdictFor(ctx context.Context, emailText string) classify.Result {
	if s.classifier == nil {
		return classify.Result{
			Category:       errorCategory,
			SuggestedReply: "Modelo de linguagem não configurado. Configure LLM_PROVIDER.",
			Rationale:      "LLM_PROVIDER não configurado",
		}
	}

	verdict, err := s.classifier.Classify(ctx, emailText)
	switch {
	case err == nil:
		return classify.Result{
			Category:       verdict.Category,
			Confidence:     verdict.Confidence,
			Rationale:      verdict.Rationale,
			SuggestedReply: verdict.SuggestedReply,
		}
	case errors.Is(err, llm.ErrMalformedResponse):
		s.logger.Warn("unparsable model answer", "model", s.classifier.Name(), "error", err)
		return classify.Result{
			Category:       errorCategory,
			SuggestedReply: "Erro ao processar resposta da IA.",
			Rationale:      fmt.Sprintf("Erro no formato da resposta: %v", err),
		}
	default:
		s.logger.Error("model request failed", "model", s.classifier.Name(), "error", err)
		return classify.Result{
			Category:       errorCategory,
			SuggestedReply: fmt.Sprintf("Erro ao comunicar com a IA: %v", err),
			Rationale:      err.Error(),
		}
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	modelAPI := "não configurada"
	if s.classifier != nil {
		modelAPI = "configurada"
	}
	status := classify.HealthStatus{
		Status:   "online",
		ModelAPI: modelAPI,
		Message:  "Backend está funcionando!",
	}
	if err := s.writeJSON(w, http.StatusOK, status, nil); err != nil {
		s.logError(r, err)
	}
}

func (s *Server) previewLimit() int {
	if s.config.PreviewLimit > 0 {
		return s.config.PreviewLimit
	}
	return defaultPreviewLimit
}

// preview keeps the first limit characters of text, marking a cut with "...".
func preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}

func (s *Server) logError(r *http.Request, err error) {
	s.logger.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := s.writeJSON(w, status, envelope{"error": message}, nil); err != nil {
		s.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	for k, v := range headers {
		for _, value := range v {
			w.Header().Add(k, value)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
