package classify

import "fmt"

// ServerError means the service answered with an error payload.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("classification service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("classification service returned status %d: %s", e.StatusCode, e.Message)
}

// ConnectionError means no response was received.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("classification service unreachable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// UnknownError covers every other failure, such as an undecodable body.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }
