package parley

// Usage tracks token consumption reported by the server on the final chunk
// of a response.
//
// InputTokens counts prompt tokens evaluated for this request; OutputTokens
// counts generated tokens. Both are zero when the server omits them.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
