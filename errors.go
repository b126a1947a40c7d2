package parley

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrInvalidInput indicates an empty or whitespace-only prompt.
	ErrInvalidInput = errors.New("invalid input: prompt is empty")

	// ErrBusy indicates an operation was attempted while a submission is
	// still in flight.
	ErrBusy = errors.New("a response is still being generated")

	// ErrTransport indicates a network failure or a non-success response
	// from the model server.
	ErrTransport = errors.New("transport error")

	// ErrExecution indicates the execution sandbox reported a failure.
	ErrExecution = errors.New("execution error")

	// ErrNoCodeFound indicates the response contains no fenced code block.
	ErrNoCodeFound = errors.New("no code found in response")

	// ErrNoAssistantTurn indicates there is no assistant response to act on.
	ErrNoAssistantTurn = errors.New("no assistant response to execute")
)
