package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/config"
	"github.com/EndrioAlberton/teste-ia/internal/tui"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "path to the YAML config file")
	baseURL := flag.String("base-url", "", "classification service base URL, eg. http://localhost:8080/api")
	timeout := flag.Duration("timeout", 0, "request timeout (default from config, 60s)")
	logFile := flag.String("log-file", "", "append logs to this file")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	text := flag.String("text", "", "classify this text and exit")
	file := flag.String("file", "", "classify this .txt or .pdf file and exit")
	asJSON := flag.Bool("json", false, "print the raw result as JSON (with -text or -file)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout != 0 {
		cfg.Timeout = *timeout
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *noAltScreen {
		cfg.AltScreen = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	closeLog, err := setupLogging(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log file:", err)
		os.Exit(2)
	}
	defer closeLog()

	client, err := classify.New(classify.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	if err != nil {
		fmt.Fprintln(os.Stderr, "client:", err)
		os.Exit(2)
	}
	log.Printf("[main] classifier at %s (timeout=%s)", client.BaseURL(), cfg.Timeout)

	if *text != "" || *file != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		code := runHeadless(ctx, client, headlessInput{Text: *text, File: *file, JSON: *asJSON}, os.Stdout, os.Stderr)
		stop()
		closeLog()
		os.Exit(code)
	}

	opts := []tea.ProgramOption{}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Client:       client,
			Timeout:      cfg.Timeout,
			PreviewLimit: cfg.PreviewLimit,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}

// setupLogging sends the standard logger to path, or discards it: the TUI
// owns the terminal.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "classifier")
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}
