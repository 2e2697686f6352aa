package tui

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Blocking work (the classification round trip, the health probe) runs
// off the update loop as numbered jobs. A job announces itself with
// jobStartedMsg and hands its payload back inside jobFinishedMsg.

type jobKind string

const (
	jobKindExtract jobKind = "extract"
	jobKindSubmit  jobKind = "submit"
	jobKindHealth  jobKind = "health"
)

type jobRecord struct {
	ID       string
	Kind     jobKind
	Started  time.Time
	Done     bool
	Duration time.Duration
	Err      error
}

type jobStartedMsg struct {
	Job jobRecord
}

type jobFinishedMsg struct {
	Job     jobRecord
	Payload tea.Msg
}

// jobWork does the blocking part of a job. The error only marks the record;
// the payload is delivered either way.
type jobWork func(context.Context) (tea.Msg, error)

type jobBus struct {
	seq     atomic.Uint64
	timeout time.Duration
	now     func() time.Time
}

func newJobBus(timeout time.Duration) *jobBus {
	return &jobBus{timeout: timeout, now: time.Now}
}

func (b *jobBus) nextID(kind jobKind) string {
	return fmt.Sprintf("%s-%d", kind, b.seq.Add(1))
}

func (b *jobBus) Start(kind jobKind, work jobWork) tea.Cmd {
	rec := jobRecord{ID: b.nextID(kind), Kind: kind, Started: b.now()}
	return tea.Sequence(
		func() tea.Msg { return jobStartedMsg{Job: rec} },
		func() tea.Msg { return b.run(rec, work) },
	)
}

func (b *jobBus) run(rec jobRecord, work jobWork) jobFinishedMsg {
	ctx := context.Background()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	payload, err := work(ctx)
	rec.Done = true
	rec.Err = err
	rec.Duration = b.now().Sub(rec.Started)
	log.Printf("[jobs] %s done in %s (err=%v)", rec.ID, rec.Duration.Round(time.Millisecond), err)
	return jobFinishedMsg{Job: rec, Payload: payload}
}
