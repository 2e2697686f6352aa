package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/intake"
	"github.com/EndrioAlberton/teste-ia/internal/present"
	"github.com/EndrioAlberton/teste-ia/internal/submission"
)

type headlessInput struct {
	Text string
	File string
	JSON bool
}

// runHeadless submits one input without the TUI and returns the exit code.
func runHeadless(ctx context.Context, client classify.Client, in headlessInput, stdout, stderr io.Writer) int {
	if in.Text != "" && in.File != "" {
		fmt.Fprintln(stderr, "use -text or -file, not both")
		return 2
	}

	acquirer := intake.NewAcquirer()
	if in.File != "" {
		acquirer.SetMode(intake.ModeFile)
		file, err := intake.Stat(in.File)
		if err != nil {
			fmt.Fprintln(stderr, submission.MessageFor(&intake.ReadError{Path: in.File, Err: err}))
			return 1
		}
		if err := acquirer.SelectFile(file); err != nil {
			fmt.Fprintln(stderr, submission.MessageFor(err))
			return 1
		}
	} else {
		acquirer.SetText(in.Text)
	}
	if err := acquirer.Validate(); err != nil {
		fmt.Fprintln(stderr, submission.MessageFor(err))
		return 1
	}

	controller := submission.NewController(client)
	var state submission.State
	if text, err := acquirer.Resolve(ctx, intake.NewExtractor()); err != nil {
		state, _ = controller.Fail(err)
	} else if state, err = controller.Submit(ctx, text); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch s := state.(type) {
	case submission.Success:
		if in.JSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(s.Result); err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
			return 0
		}
		printVerdict(stdout, present.New(s.Result))
		return 0
	case submission.Failed:
		fmt.Fprintln(stderr, s.Message)
		return 1
	default:
		fmt.Fprintf(stderr, "unexpected state %s\n", state)
		return 1
	}
}

func printVerdict(w io.Writer, p *present.Presenter) {
	result := p.Result()
	var b strings.Builder
	fmt.Fprintf(&b, "Categoria: %s (%s)\n", result.Category, p.Variant().Meaning())
	fmt.Fprintf(&b, "Confiança: %d%%\n", p.ConfidencePercent())
	if result.Rationale != "" {
		fmt.Fprintf(&b, "Motivo da Classificação: %s\n", result.Rationale)
	}
	fmt.Fprintf(&b, "\nResposta Sugerida:\n%s\n", result.SuggestedReply)
	_, _ = io.WriteString(w, b.String())
}
