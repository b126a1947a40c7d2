package parley

import "context"

// Request carries everything needed for one chat request. Messages include
// the synthesized system turn followed by the transcript snapshot.
type Request struct {
	BaseURL  string // server base URL; empty = provider default
	Model    string // model identifier; empty = provider default
	Messages []Turn
}

// Chunk is one decoded content delta from a streaming response.
// The final chunk of a response has Done set and carries usage figures.
type Chunk struct {
	Content    string
	Done       bool
	DoneReason string
	Usage      Usage
}

// Stream uses a pull-based iterator pattern. Next returns io.EOF once the
// response has been fully consumed. Transport failures are returned from
// Next as errors wrapping ErrTransport; lines that fail to decode are
// skipped and never surface.
type Stream interface {
	Next() (Chunk, error)
	Close() error
}

// Provider opens streaming chat requests against a model server.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// ModelCatalog lists the model identifiers a server can serve.
type ModelCatalog interface {
	Models(ctx context.Context) ([]string, error)
}

// Sandbox runs extracted code. Execute returns nil on success and an error
// describing the failure otherwise. The caller never inspects the effects
// of the executed code.
type Sandbox interface {
	Execute(ctx context.Context, code string) error
}

// SceneProvider describes the environment the assistant operates on. The
// description is inserted verbatim into the system turn of every request.
type SceneProvider interface {
	Describe(ctx context.Context) (string, error)
}

// Settings exposes the live configuration values the engine consults on
// every submission.
type Settings interface {
	BaseURL() string
	AutoExecute() bool
}
