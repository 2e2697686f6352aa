package submission

import "github.com/EndrioAlberton/teste-ia/internal/classify"

// State is exactly one of Idle, Loading, Success or Failed.
type State interface {
	isState()
	String() string
}

// Idle: nothing submitted yet, or the last outcome was dismissed.
type Idle struct{}

// Loading: one attempt is in flight.
type Loading struct {
	Attempt Attempt
}

// Success holds the verdict of the last attempt.
type Success struct {
	Result classify.Result
}

// Failed holds the user-facing message of the last attempt.
type Failed struct {
	Message string
}

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Failed) isState()  {}

func (Idle) String() string    { return "idle" }
func (Loading) String() string { return "loading" }
func (Success) String() string { return "success" }
func (Failed) String() string  { return "failed" }
