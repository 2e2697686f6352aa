package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/intake"
	"github.com/EndrioAlberton/teste-ia/internal/present"
	"github.com/EndrioAlberton/teste-ia/internal/submission"
)

const healthProbeTimeout = 5 * time.Second

// extractJob reads the selected file of the input snapshot. Nothing is
// submitted yet.
func extractJob(input intake.Acquirer, resolver intake.Resolver) jobWork {
	return func(ctx context.Context) (tea.Msg, error) {
		text, err := input.Resolve(ctx, resolver)
		return extractDoneMsg{text: text, err: err}, err
	}
}

// submitJob classifies already resolved text under attempt.
func submitJob(controller *submission.Controller, attempt submission.Attempt, text string) jobWork {
	return func(ctx context.Context) (tea.Msg, error) {
		state := controller.Classify(ctx, attempt, text)
		var jobErr error
		if failed, ok := state.(submission.Failed); ok {
			jobErr = errors.New(failed.Message)
		}
		return submissionDoneMsg{attempt: attempt, state: state}, jobErr
	}
}

func healthJob(client classify.Client) jobWork {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, healthProbeTimeout)
		defer cancel()
		status := client.Health(ctx)
		var err error
		if !status.Online() {
			err = errors.New(status.Message)
		}
		return healthResultMsg{status: status}, err
	}
}

func copyAckExpiryCmd() tea.Cmd {
	return tea.Tick(present.CopyAckDuration, func(time.Time) tea.Msg {
		return copyAckExpiredMsg{}
	})
}

func previewText(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	// The service already cuts long bodies with a trailing "...".
	if len([]rune(strings.TrimSuffix(value, "..."))) <= limit {
		return value
	}
	return string([]rune(value)[:limit]) + "..."
}
