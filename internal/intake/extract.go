package intake

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/ledongthuc/pdf"
)

var (
	extraneousWhitespace = regexp.MustCompile(`[ \t\f\v]+`)
	headerLine           = regexp.MustCompile(`^[A-Za-z0-9-]+:`)

	errEmptyText = errors.New("no text found")
)

var messageHeaders = []string{"from", "subject", "date", "to", "message-id", "mime-version"}

// Extractor decodes the bytes of a selected file into plain text.
type Extractor struct {
	// Fallback charset for text files that are not valid UTF-8.
	LegacyCharset string
}

// NewExtractor returns an Extractor that treats non UTF-8 text as Windows-1252.
func NewExtractor() *Extractor {
	return &Extractor{LegacyCharset: "windows-1252"}
}

// Extract blocks until the whole file is decoded. Partial results are never
// returned; every failure is a *ReadError.
func (e *Extractor) Extract(ctx context.Context, file File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &ReadError{Path: file.Path, Err: err}
	}
	var (
		text string
		err  error
	)
	switch file.DeclaredType {
	case TypePDF:
		text, err = extractPDF(file.Path)
	case TypePlainText:
		text, err = e.extractPlain(file.Path)
	default:
		err = fmt.Errorf("unsupported type %q", file.DeclaredType)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyText
	}
	if err != nil {
		log.Printf("[intake] extract %s failed: %v", file.Name, err)
		return "", &ReadError{Path: file.Path, Err: err}
	}
	log.Printf("[intake] extracted %d chars from %s (%s)", utf8.RuneCountInString(text), file.Name, file.DeclaredType)
	return text, nil
}

func (e *Extractor) extractPlain(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if looksLikeMessage(raw) {
		if text, err := messageText(raw); err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	if e.LegacyCharset == "" {
		return "", errors.New("file is not valid UTF-8 text")
	}
	decoded, err := charset.Reader(e.LegacyCharset, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", e.LegacyCharset, err)
	}
	out, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", e.LegacyCharset, err)
	}
	return string(out), nil
}

// looksLikeMessage reports whether raw starts with an RFC 5322 header block
// containing at least one well-known message header.
func looksLikeMessage(raw []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	known := false
	lines := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			return known && lines > 0
		}
		lines++
		if line[0] == ' ' || line[0] == '\t' {
			if lines == 1 {
				return false
			}
			continue
		}
		if !headerLine.MatchString(line) {
			return false
		}
		name := strings.ToLower(line[:strings.IndexByte(line, ':')])
		for _, h := range messageHeaders {
			if name == h {
				known = true
			}
		}
	}
	return false
}

// messageText keeps the subject as the first line followed by the inline
// text/plain parts. Attachments are skipped.
func messageText(raw []byte) (string, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	defer mr.Close()

	var b strings.Builder
	if subject, err := mr.Header.Subject(); err == nil && strings.TrimSpace(subject) != "" {
		b.WriteString(strings.TrimSpace(subject))
		b.WriteString("\n\n")
	}
	found := false
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType != "" && !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return "", err
		}
		b.Write(bytes.TrimSpace(body))
		b.WriteString("\n")
		found = true
	}
	if !found {
		return "", errEmptyText
	}
	return strings.TrimSpace(b.String()), nil
}

func extractPDF(path string) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}

	text = extraneousWhitespace.ReplaceAllString(builder.String(), " ")
	return strings.TrimSpace(text), nil
}
