package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxAPIErrorBody = 4 << 10

// completeFunc sends one prompt and returns the model's raw answer.
type completeFunc func(ctx context.Context, prompt string) (string, error)

// classifyWith clips the email, prompts the model once and decodes the
// verdict.
func classifyWith(ctx context.Context, emailText string, complete completeFunc) (Verdict, error) {
	email := clipText(emailText, maxEmailChars)
	if email == "" {
		return Verdict{}, ErrEmptyEmail
	}
	raw, err := complete(ctx, buildClassifyPrompt(email))
	if err != nil {
		return Verdict{}, err
	}
	return parseVerdict(raw)
}

// postJSON posts payload to url and decodes a 2xx body into out. Non-2xx
// answers become "<api> API error" with the start of the body.
func postJSON(ctx context.Context, client *http.Client, api, url string, header http.Header, payload, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", api, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxAPIErrorBody))
		return fmt.Errorf("%s API error: %s (%s)", api, resp.Status, bytes.TrimSpace(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s response: %w", api, err)
	}
	return nil
}
