// Package intake owns the two input modes of the classifier form (pasted
// text or a local file), validates them before any network activity and
// resolves them into the plain text that gets submitted.
package intake

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Mode selects which input variant is active.
type Mode int

const (
	ModeText Mode = iota
	ModeFile
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeFile:
		return "file"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const (
	// MinTextLength is the minimum trimmed length, in characters, of pasted text.
	MinTextLength = 10
	// MaxFileSize is the largest accepted upload, in bytes.
	MaxFileSize = 5 * 1024 * 1024

	TypePlainText = "text/plain"
	TypePDF       = "application/pdf"
)

var supportedTypes = map[string]bool{
	TypePlainText: true,
	TypePDF:       true,
}

// File is a handle to a file chosen by the user. DeclaredType is derived
// from the file name, the way a browser fills File.type.
type File struct {
	Path         string
	Name         string
	DeclaredType string
	Size         int64
}

// Stat builds a File for the given path.
func Stat(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	return File{
		Path:         path,
		Name:         name,
		DeclaredType: DetectType(name),
		Size:         info.Size(),
	}, nil
}

// DetectType maps a file name to its MIME type without parameters. Unknown
// extensions yield an empty string.
func DetectType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".text":
		return TypePlainText
	case ".pdf":
		return TypePDF
	case "":
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}

// Resolver turns a selected file into text.
type Resolver interface {
	Extract(ctx context.Context, file File) (string, error)
}

// Acquirer holds the state of the input form. Exactly one variant is
// active; switching modes discards the other one.
type Acquirer struct {
	mode Mode
	text string
	file *File
}

// NewAcquirer returns an empty acquirer in text mode.
func NewAcquirer() *Acquirer {
	return &Acquirer{mode: ModeText}
}

func (a *Acquirer) Mode() Mode { return a.mode }

func (a *Acquirer) Text() string { return a.text }

// File returns the selected file, if any.
func (a *Acquirer) File() (File, bool) {
	if a.file == nil {
		return File{}, false
	}
	return *a.file, true
}

// SetMode activates mode and clears the data of the other mode.
func (a *Acquirer) SetMode(mode Mode) {
	if mode == a.mode {
		return
	}
	a.mode = mode
	switch mode {
	case ModeText:
		a.file = nil
	case ModeFile:
		a.text = ""
	}
}

// SetText stores pasted text. It is ignored outside text mode.
func (a *Acquirer) SetText(text string) {
	if a.mode != ModeText {
		return
	}
	a.text = text
}

// SelectFile validates and stores file. An invalid file leaves the previous
// selection in place.
func (a *Acquirer) SelectFile(file File) error {
	if a.mode != ModeFile {
		return fmt.Errorf("select file: input is in %s mode", a.mode)
	}
	if err := validateFile(&file); err != nil {
		return err
	}
	a.file = &file
	return nil
}

// Clear empties both variants and keeps the current mode.
func (a *Acquirer) Clear() {
	a.text = ""
	a.file = nil
}

// Validate reports whether the active variant can be submitted. It never
// touches the file contents.
func (a *Acquirer) Validate() error {
	switch a.mode {
	case ModeText:
		if len([]rune(strings.TrimSpace(a.text))) < MinTextLength {
			return ErrTooShort
		}
		return nil
	case ModeFile:
		return validateFile(a.file)
	default:
		return fmt.Errorf("validate: unknown mode %v", a.mode)
	}
}

// Resolve validates the input and returns the text to submit. Text mode is
// a pass-through; file mode delegates to resolver.
func (a *Acquirer) Resolve(ctx context.Context, resolver Resolver) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.mode == ModeText {
		return a.text, nil
	}
	if resolver == nil {
		return "", errors.New("resolve: no extractor configured")
	}
	return resolver.Extract(ctx, *a.file)
}

func validateFile(file *File) error {
	if file == nil {
		return ErrNoFileSelected
	}
	if !supportedTypes[file.DeclaredType] {
		return ErrUnsupportedType
	}
	if file.Size > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}
