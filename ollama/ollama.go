// Package ollama implements [parley.Provider] and [parley.ModelCatalog] for
// the Ollama HTTP API.
//
// Chat responses arrive as newline-delimited JSON. Each line is decoded on
// its own and surfaces through the pull-based [parley.Stream] interface as
// one [parley.Chunk]. Lines that fail to decode are skipped.
package ollama

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"
	chatPath       = "/api/chat"
	tagsPath       = "/api/tags"

	// maxLineSize bounds a single NDJSON line.
	maxLineSize = 1024 * 1024
)

// apiMessage is one conversation entry on the wire.
type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiChatRequest is the JSON body sent to /api/chat.
type apiChatRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"`
}

// apiChatResponse is one NDJSON line of a streaming /api/chat response.
type apiChatResponse struct {
	Model           string     `json:"model"`
	Message         apiMessage `json:"message"`
	Done            bool       `json:"done"`
	DoneReason      string     `json:"done_reason,omitempty"`
	PromptEvalCount int        `json:"prompt_eval_count,omitempty"`
	EvalCount       int        `json:"eval_count,omitempty"`
	Error           string     `json:"error,omitempty"`
}

type apiModel struct {
	Name string `json:"name"`
}

// apiTagsResponse is the response from /api/tags.
type apiTagsResponse struct {
	Models []apiModel `json:"models"`
}

// apiError is the body the server sends alongside non-2xx statuses.
type apiError struct {
	Error string `json:"error"`
}
