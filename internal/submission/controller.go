// Package submission drives one classification at a time through the
// idle → loading → success/failed cycle.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
)

// ErrBusy is returned when an attempt is already in flight.
var ErrBusy = errors.New("submission already in progress")

// Attempt identifies one submission. Only the current attempt may finish.
type Attempt uint64

// Controller is the only writer of the submission state.
type Controller struct {
	client classify.Client

	mu      sync.Mutex
	state   State
	current Attempt
	started time.Time
	now     func() time.Time
}

// NewController returns an idle controller that classifies through client.
func NewController(client classify.Client) *Controller {
	return &Controller{
		client: client,
		state:  Idle{},
		now:    time.Now,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether an attempt is in flight.
func (c *Controller) Busy() bool {
	_, loading := c.State().(Loading)
	return loading
}

// Begin enters Loading and drops any previous outcome. A second Begin while
// loading is rejected with ErrBusy.
func (c *Controller) Begin() (Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, loading := c.state.(Loading); loading {
		return 0, ErrBusy
	}
	c.current++
	c.started = c.now()
	c.state = Loading{Attempt: c.current}
	log.Printf("[submit] attempt %d loading", c.current)
	return c.current, nil
}

// Classify sends text for attempt and records the outcome. The remote call
// is made exactly once and never retried.
func (c *Controller) Classify(ctx context.Context, attempt Attempt, text string) State {
	if !c.owns(attempt) {
		return c.State()
	}
	result, err := c.client.Classify(ctx, text)
	return c.finish(attempt, result, err)
}

// Fail records a failure that happened before dispatch, such as an
// unreadable file. No attempt starts and the service is not contacted. It is
// rejected with ErrBusy while an attempt is in flight.
func (c *Controller) Fail(err error) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, loading := c.state.(Loading); loading {
		return c.state, ErrBusy
	}
	if err == nil {
		err = errors.New("submission failed")
	}
	log.Printf("[submit] failed before dispatch: %v", err)
	c.state = Failed{Message: MessageFor(err)}
	return c.state, nil
}

// Submit runs a whole attempt for already resolved text.
func (c *Controller) Submit(ctx context.Context, text string) (State, error) {
	attempt, err := c.Begin()
	if err != nil {
		return c.State(), err
	}
	return c.Classify(ctx, attempt, text), nil
}

// Reset returns to Idle. It is rejected while loading since an in-flight
// attempt cannot be cancelled.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, loading := c.state.(Loading); loading {
		return ErrBusy
	}
	c.state = Idle{}
	return nil
}

func (c *Controller) owns(attempt Attempt) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	loading, ok := c.state.(Loading)
	return ok && loading.Attempt == attempt
}

// finish performs the single terminal transition of attempt. Late or
// duplicate completions are ignored.
func (c *Controller) finish(attempt Attempt, result classify.Result, err error) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	loading, ok := c.state.(Loading)
	if !ok || loading.Attempt != attempt {
		log.Printf("[submit] attempt %d already finished; dropping outcome (err=%v)", attempt, err)
		return c.state
	}
	elapsed := c.now().Sub(c.started)
	if err != nil {
		message := MessageFor(err)
		log.Printf("[submit] attempt %d failed after %s: %v", attempt, elapsed, err)
		c.state = Failed{Message: message}
		return c.state
	}
	log.Printf("[submit] attempt %d succeeded after %s (%s)", attempt, elapsed, result.Category)
	c.state = Success{Result: result}
	return c.state
}

func (c *Controller) String() string {
	return fmt.Sprintf("submission(%s)", c.State())
}
