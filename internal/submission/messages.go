package submission

import (
	"errors"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/intake"
)

const (
	msgReadFailed       = "Erro ao ler arquivo. Tente novamente."
	msgServerFallback   = "Erro ao classificar email"
	msgConnectionFailed = "Erro de conexão. Verifique sua internet e tente novamente."
	msgUnknown          = "Erro desconhecido"
)

// MessageFor maps a failure to the text shown to the user. Transport errors
// are never shown verbatim; a server's error field is.
func MessageFor(err error) string {
	var (
		validationErr *intake.ValidationError
		readErr       *intake.ReadError
		serverErr     *classify.ServerError
		connErr       *classify.ConnectionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &readErr):
		return msgReadFailed
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return msgServerFallback
	case errors.As(err, &connErr):
		return msgConnectionFailed
	default:
		return msgUnknown
	}
}
