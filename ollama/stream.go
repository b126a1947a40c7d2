package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/parley"
	"github.com/sirupsen/logrus"
)

type streamState int

const (
	stateNew streamState = iota
	stateStreaming
	stateComplete
	stateError
	stateClosed
)

// stream implements [parley.Stream] by decoding NDJSON lines from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	log     logrus.FieldLogger
	state   streamState
	err     error // terminal error, if any
}

// Interface compliance check.
var _ parley.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, log logrus.FieldLogger) *stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &stream{
		body:    body,
		scanner: sc,
		ctx:     ctx,
		log:     log,
		state:   stateNew,
	}
}

// Next reads the next content delta. The line flagged done is returned as a
// final chunk; every call after it returns io.EOF. A body that ends without
// a done line also ends cleanly.
func (s *stream) Next() (parley.Chunk, error) {
	switch s.state {
	case stateComplete:
		return parley.Chunk{}, io.EOF
	case stateError:
		return parley.Chunk{}, s.err
	case stateClosed:
		return parley.Chunk{}, fmt.Errorf("ollama: stream closed")
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp apiChatResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			s.log.WithError(err).WithField("line", string(line)).Debug("skipping undecodable line")
			continue
		}
		if resp.Error != "" {
			s.terminate(fmt.Errorf("ollama: server error: %s: %w", resp.Error, parley.ErrTransport))
			return parley.Chunk{}, s.err
		}

		s.state = stateStreaming
		chunk := parley.Chunk{Content: resp.Message.Content}
		if resp.Done {
			chunk.Done = true
			chunk.DoneReason = resp.DoneReason
			chunk.Usage = parley.Usage{
				InputTokens:  resp.PromptEvalCount,
				OutputTokens: resp.EvalCount,
			}
			s.state = stateComplete
		}
		return chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		s.terminate(fmt.Errorf("ollama: read stream: %w: %w", parley.ErrTransport, err))
		return parley.Chunk{}, s.err
	}
	if err := s.ctx.Err(); err != nil {
		s.terminate(fmt.Errorf("ollama: %w: %w", parley.ErrTransport, err))
		return parley.Chunk{}, s.err
	}
	s.state = stateComplete
	return parley.Chunk{}, io.EOF
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != stateComplete && s.state != stateError {
		s.state = stateClosed
	}
	return s.body.Close()
}

func (s *stream) terminate(err error) {
	s.state = stateError
	s.err = err
}
