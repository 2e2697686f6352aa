package intake

import "fmt"

// ValidationKind enumerates client-side rejections.
type ValidationKind int

const (
	TooShort ValidationKind = iota + 1
	NoFileSelected
	UnsupportedType
	TooLarge
)

// ValidationError is returned before any read or network call is attempted.
type ValidationError struct {
	Kind ValidationKind
}

var (
	ErrTooShort        = &ValidationError{Kind: TooShort}
	ErrNoFileSelected  = &ValidationError{Kind: NoFileSelected}
	ErrUnsupportedType = &ValidationError{Kind: UnsupportedType}
	ErrTooLarge        = &ValidationError{Kind: TooLarge}
)

func (e *ValidationError) Error() string {
	switch e.Kind {
	case TooShort:
		return "Por favor, insira um texto com pelo menos 10 caracteres."
	case NoFileSelected:
		return "Por favor, selecione um arquivo."
	case UnsupportedType:
		return "Formato não suportado. Use .txt ou .pdf"
	case TooLarge:
		return "Arquivo muito grande. Máximo: 5MB"
	default:
		return fmt.Sprintf("entrada inválida (%d)", int(e.Kind))
	}
}

// Is matches any ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// ReadError reports that a selected file could not be turned into text.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
