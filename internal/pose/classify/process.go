package classify

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// maxMessageSize bounds a single framed message from the worker.
const maxMessageSize = 16 << 20

type predictRequest struct {
	Sequence [][]float64 `msgpack:"sequence"`
}

type predictResponse struct {
	Probabilities []float64 `msgpack:"probabilities"`
	Error         string    `msgpack:"error,omitempty"`
}

// WriteMessage writes v as a 4-byte big-endian length prefix followed by
// its msgpack encoding.
func WriteMessage(w io.Writer, v interface{}) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal msgpack message: %w", err)
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write msgpack data: %w", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed msgpack message into v.
func ReadMessage(r io.Reader, v interface{}) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return fmt.Errorf("failed to read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit %d", n, maxMessageSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("failed to read msgpack data: %w", err)
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal msgpack message: %w", err)
	}
	return nil
}

// ProcessClassifier forwards each Predict call to an external model worker
// over a request/response stream. Calls are serialised. Once a call times
// out or the stream breaks, every later call fails fast: the stream can no
// longer be trusted to be aligned.
type ProcessClassifier struct {
	mu      sync.Mutex
	r       io.Reader
	w       io.Writer
	timeout time.Duration
	broken  error

	cmd     *exec.Cmd
	closers []io.Closer
}

// NewStreamClassifier speaks the worker protocol over r and w. A zero
// timeout waits indefinitely.
func NewStreamClassifier(r io.Reader, w io.Writer, timeout time.Duration) *ProcessClassifier {
	return &ProcessClassifier{
		r:       bufio.NewReader(r),
		w:       w,
		timeout: timeout,
	}
}

// StartProcessClassifier launches argv as a model worker and connects to
// its stdin/stdout. Worker stderr is forwarded to the diag log.
func StartProcessClassifier(ctx context.Context, argv []string, timeout time.Duration) (*ProcessClassifier, error) {
	if len(argv) == 0 {
		return nil, errors.New("classifier command is empty")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start classifier worker: %w", err)
	}
	diagf("started classifier worker pid=%d: %v", cmd.Process.Pid, argv)

	go func() {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			diagf("worker: %s", sc.Text())
		}
	}()

	c := NewStreamClassifier(stdout, stdin, timeout)
	c.cmd = cmd
	c.closers = []io.Closer{stdin}
	return c, nil
}

// Predict implements Classifier.
func (c *ProcessClassifier) Predict(sequence [][]float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, fmt.Errorf("worker stream unusable: %w", c.broken)
	}

	type reply struct {
		resp predictResponse
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		var rep reply
		if err := WriteMessage(c.w, predictRequest{Sequence: sequence}); err != nil {
			rep.err = err
		} else {
			rep.err = ReadMessage(c.r, &rep.resp)
		}
		done <- rep
	}()

	var rep reply
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		select {
		case rep = <-done:
		case <-timer.C:
			c.broken = fmt.Errorf("no reply within %s", c.timeout)
			return nil, c.broken
		}
	} else {
		rep = <-done
	}

	if rep.err != nil {
		c.broken = rep.err
		return nil, rep.err
	}
	if rep.resp.Error != "" {
		return nil, fmt.Errorf("worker error: %s", rep.resp.Error)
	}
	tracef("worker returned %d probabilities", len(rep.resp.Probabilities))
	return rep.resp.Probabilities, nil
}

// Close shuts the worker down: stdin is closed so the worker can exit
// cleanly, then the process is killed if it has not exited within 2s.
func (c *ProcessClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	if c.broken == nil {
		c.broken = errors.New("classifier closed")
	}
	if c.cmd == nil || c.cmd.Process == nil {
		return firstErr
	}

	exited := make(chan error, 1)
	go func() { exited <- c.cmd.Wait() }()
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		opsf("classifier worker pid=%d did not exit, killing", c.cmd.Process.Pid)
		if err := c.cmd.Process.Kill(); err != nil && firstErr == nil {
			firstErr = err
		}
		<-exited
	}
	c.cmd = nil
	return firstErr
}
