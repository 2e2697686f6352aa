package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedResponse marks model output that is not a usable verdict.
var ErrMalformedResponse = errors.New("malformed classification response")

const systemPrompt = "Você é um assistente de classificação de emails para uma empresa financeira. Responda apenas com JSON."

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func buildClassifyPrompt(emailText string) string {
	var b strings.Builder
	b.WriteString("Você é um assistente de classificação de emails para uma empresa financeira.\n\n")
	b.WriteString("TAREFA: Analise o email abaixo e:\n")
	b.WriteString("1. Classifique como \"Produtivo\" ou \"Improdutivo\"\n")
	b.WriteString("2. Gere uma resposta automática apropriada\n\n")
	b.WriteString("DEFINIÇÕES:\n")
	b.WriteString("- Produtivo: Emails que requerem ação ou resposta (ex: solicitações de suporte, dúvidas sobre sistema, atualização de casos)\n")
	b.WriteString("- Improdutivo: Emails que não necessitam ação imediata (ex: felicitações, agradecimentos, mensagens sociais)\n\n")
	b.WriteString("EMAIL:\n")
	b.WriteString(emailText)
	b.WriteString("\n\nRESPONDA EXATAMENTE neste formato JSON (sem markdown):\n")
	b.WriteString("{\n")
	b.WriteString("    \"categoria\": \"Produtivo\" ou \"Improdutivo\",\n")
	b.WriteString("    \"confianca\": número entre 0 e 100,\n")
	b.WriteString("    \"razao\": \"breve explicação da classificação\",\n")
	b.WriteString("    \"resposta_sugerida\": \"resposta automática apropriada e profissional\"\n")
	b.WriteString("}\n")
	return b.String()
}

// stripCodeFence removes a surrounding ``` or ```json block.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if end := strings.Index(raw, "```"); end >= 0 {
		raw = raw[:end]
	}
	raw = strings.TrimPrefix(raw, "json")
	return strings.TrimSpace(raw)
}

// parseVerdict decodes the model output. Confidence may come back as a
// float or a quoted number and is rounded to an integer.
func parseVerdict(raw string) (Verdict, error) {
	raw = stripCodeFence(raw)
	if raw == "" {
		return Verdict{}, fmt.Errorf("%w: empty output", ErrMalformedResponse)
	}
	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start && (start > 0 || end < len(raw)-1) {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	var lastErr error
	for _, candidate := range candidates {
		var payload struct {
			Category       string      `json:"categoria"`
			Confidence     json.Number `json:"confianca"`
			Rationale      string      `json:"razao"`
			SuggestedReply string      `json:"resposta_sugerida"`
		}
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			lastErr = err
			continue
		}
		verdict := Verdict{
			Category:       strings.TrimSpace(payload.Category),
			Rationale:      strings.TrimSpace(payload.Rationale),
			SuggestedReply: strings.TrimSpace(payload.SuggestedReply),
		}
		if payload.Confidence != "" {
			f, err := payload.Confidence.Float64()
			if err != nil {
				lastErr = fmt.Errorf("confianca: %w", err)
				continue
			}
			verdict.Confidence = int(math.Round(f))
		}
		if verdict.Category == "" {
			lastErr = fmt.Errorf("response has no categoria")
			continue
		}
		return verdict, nil
	}
	return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedResponse, lastErr)
}
