package exec

import (
	"os"
	"sync"
)

// OutputCollector is an io.Writer that keeps the last maxBuf bytes written
// in memory. Once more than threshold bytes have been written, everything
// from the first byte on is also written to a temp file.
//
// It is safe for concurrent use. Writes after Close are discarded.
type OutputCollector struct {
	mu        sync.Mutex
	buf       []byte
	total     int64
	threshold int64
	maxBuf    int
	file      *os.File
	filePath  string
	err       error // first offload error
	closed    bool
}

// NewOutputCollector creates a collector. maxBuf is raised to threshold when
// smaller so the file receives the output from the start.
func NewOutputCollector(threshold int64, maxBuf int) *OutputCollector {
	if int64(maxBuf) < threshold {
		maxBuf = int(threshold)
	}
	return &OutputCollector{threshold: threshold, maxBuf: maxBuf}
}

// Write implements io.Writer. It never fails; offload errors are reported
// by Err.
func (c *OutputCollector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return len(p), nil
	}

	c.total += int64(len(p))
	c.buf = append(c.buf, p...)

	switch {
	case c.err != nil:
	case c.file != nil:
		_, c.err = c.file.Write(p)
	case c.total > c.threshold:
		c.offload()
	}

	if over := len(c.buf) - c.maxBuf; over > 0 {
		c.buf = append([]byte(nil), c.buf[over:]...)
	}
	return len(p), nil
}

// offload creates the temp file and writes the buffer, which still holds
// everything written so far.
func (c *OutputCollector) offload() {
	f, err := os.CreateTemp("", "parley-exec-*.log")
	if err != nil {
		c.err = err
		return
	}
	c.file = f
	c.filePath = f.Name()
	_, c.err = f.Write(c.buf)
}

// Bytes returns a copy of the in-memory tail.
func (c *OutputCollector) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf...)
}

// TotalBytes returns the number of bytes written in total.
func (c *OutputCollector) TotalBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// FilePath returns the temp file path, or "" when nothing was offloaded.
func (c *OutputCollector) FilePath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filePath
}

// Err returns the first offload error.
func (c *OutputCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close closes the temp file, if any. The file itself is left on disk.
func (c *OutputCollector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
