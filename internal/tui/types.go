package tui

import (
	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/submission"
)

type stage int

const (
	stageForm stage = iota
	stageLoading
	stageResult
	stageError
)

func (s stage) String() string {
	switch s {
	case stageForm:
		return "form"
	case stageLoading:
		return "loading"
	case stageResult:
		return "result"
	case stageError:
		return "error"
	default:
		return "unknown"
	}
}

// stageFor maps the controller state onto the screen that renders it.
func stageFor(state submission.State) stage {
	switch state.(type) {
	case submission.Loading:
		return stageLoading
	case submission.Success:
		return stageResult
	case submission.Failed:
		return stageError
	default:
		return stageForm
	}
}

const (
	heroTitle   = "Classificador de Emails"
	heroTagline = "Automatize a classificação de emails com Inteligência Artificial"
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	defaultPreviewLimit       = 500
	confidenceBarWidth        = 30
)

const (
	textPlaceholder = "Cole aqui o conteúdo do email que deseja classificar..."
	fileFormatsHint = "Formatos: .txt, .pdf (Máx: 5MB)"
)

type submissionDoneMsg struct {
	attempt submission.Attempt
	state   submission.State
}

// extractDoneMsg carries the text read from the selected file.
type extractDoneMsg struct {
	text string
	err  error
}

type healthResultMsg struct {
	status classify.HealthStatus
}

// copyAckExpiredMsg re-renders the copy button once the acknowledgement lapses.
type copyAckExpiredMsg struct{}
