// Package present derives what the result view shows for a verdict.
package present

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
)

// CopyAckDuration is how long the "copied" acknowledgement stays on.
const CopyAckDuration = 2 * time.Second

// Variant is the display tone of a category.
type Variant int

const (
	VariantErrorLike Variant = iota
	VariantPositive
	VariantCaution
)

// VariantOf maps a category label to its variant. Unrecognised labels,
// including the empty string, fall back to VariantErrorLike.
func VariantOf(category string) Variant {
	switch category {
	case classify.CategoryProductive:
		return VariantPositive
	case classify.CategoryUnproductive:
		return VariantCaution
	default:
		return VariantErrorLike
	}
}

func (v Variant) String() string {
	switch v {
	case VariantPositive:
		return "positive"
	case VariantCaution:
		return "caution"
	case VariantErrorLike:
		return "error-like"
	default:
		panic(fmt.Sprintf("present: unknown variant %d", int(v)))
	}
}

// Meaning is a short description of what the variant implies for the user.
func (v Variant) Meaning() string {
	switch v {
	case VariantPositive:
		return "requer ação ou resposta"
	case VariantCaution:
		return "não requer ação imediata"
	case VariantErrorLike:
		return "classificação não reconhecida"
	default:
		panic(fmt.Sprintf("present: unknown variant %d", int(v)))
	}
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard writes to the OS clipboard.
func SystemClipboard() Clipboard { return systemClipboard{} }

// ClipboardError reports a failed copy. It never affects the submission state.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string {
	return "Não foi possível copiar o texto."
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// Presenter holds the view state of one successful result.
type Presenter struct {
	result    classify.Result
	variant   Variant
	clipboard Clipboard
	now       func() time.Time

	copiedAt        time.Time
	copied          bool
	previewExpanded bool
}

// Option customises a Presenter.
type Option func(*Presenter)

// WithClipboard replaces the system clipboard.
func WithClipboard(cb Clipboard) Option {
	return func(p *Presenter) { p.clipboard = cb }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Presenter) { p.now = now }
}

// New returns a presenter for result with the preview collapsed.
func New(result classify.Result, opts ...Option) *Presenter {
	p := &Presenter{
		result:    result,
		variant:   VariantOf(result.Category),
		clipboard: SystemClipboard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Presenter) Result() classify.Result { return p.result }

func (p *Presenter) Variant() Variant { return p.variant }

// ConfidencePercent clamps the confidence into 0..100.
func (p *Presenter) ConfidencePercent() int {
	switch {
	case p.result.Confidence < 0:
		return 0
	case p.result.Confidence > 100:
		return 100
	default:
		return p.result.Confidence
	}
}

// CopySuggestedReply copies the suggested reply verbatim. A copy made while
// the acknowledgement is showing does not extend it.
func (p *Presenter) CopySuggestedReply() error {
	if err := p.clipboard.WriteAll(p.result.SuggestedReply); err != nil {
		return &ClipboardError{Err: err}
	}
	if !p.Acknowledged() {
		p.copied = true
		p.copiedAt = p.now()
	}
	return nil
}

// Acknowledged is true for CopyAckDuration after the copy that switched the
// acknowledgement on.
func (p *Presenter) Acknowledged() bool {
	if !p.copied {
		return false
	}
	if p.now().Sub(p.copiedAt) >= CopyAckDuration {
		p.copied = false
		return false
	}
	return true
}

// HasPreview reports whether the service echoed the original email.
func (p *Presenter) HasPreview() bool { return p.result.OriginalEmail != "" }

// TogglePreview expands or collapses the original email preview.
func (p *Presenter) TogglePreview() {
	if !p.HasPreview() {
		return
	}
	p.previewExpanded = !p.previewExpanded
}

func (p *Presenter) PreviewExpanded() bool { return p.previewExpanded }
