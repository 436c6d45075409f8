package httpapi

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// maxEventLine bounds a single SSE line. Solver logs are short; this only
// protects against a runaway response.
const maxEventLine = 1 << 20

var errStreamClosed = errors.New("stream closed")

// eventReader decodes a text/event-stream body into message payloads.
// Only the data field is used. Multiple data lines in one event are joined
// with "\n"; comments and other fields are ignored.
type eventReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	mu     sync.Mutex
	closed bool
}

func newEventReader(body io.ReadCloser) *eventReader {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 4096), maxEventLine)
	return &eventReader{body: body, scanner: sc}
}

// Next implements service.LineReader.
func (r *eventReader) Next() (string, error) {
	if r.isClosed() {
		return "", errStreamClosed
	}

	var data []string
	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if data == nil {
				continue
			}
			return strings.Join(data, "\n"), nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			data = append(data, value)
		}
	}

	if r.isClosed() {
		return "", errStreamClosed
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	// A final event without its blank-line terminator is still dispatched.
	if data != nil {
		return strings.Join(data, "\n"), nil
	}
	return "", io.EOF
}

// Close implements service.LineReader.
func (r *eventReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.body.Close()
}

func (r *eventReader) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
