package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxSSELineSize caps a single SSE line at 1 MB. bufio.Scanner defaults to
// 64 KiB, which large tool-call argument frames can exceed.
const maxSSELineSize = 1 * 1024 * 1024

// doneSentinel terminates OpenAI-compatible streams.
const doneSentinel = "[DONE]"

// SSEEvent is one dispatched Server-Sent Event. Event is empty when the
// producer did not send an "event:" field.
type SSEEvent struct {
	Event string
	Data  string
}

// SSEScanner reads Server-Sent Events from an io.Reader.
//
// Comments and unknown fields are skipped, consecutive "data:" lines of the
// same event are joined with a newline, and the [DONE] sentinel is reported
// as io.EOF.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner wraps reader. Lines longer than 1 MB make Next fail with an
// error wrapping bufio.ErrTooLong.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{scanner: scanner}
}

// Next returns the next event carrying data. Events without any data line
// (keep-alives, bare "event:" blocks) are skipped.
func (s *SSEScanner) Next() (SSEEvent, error) {
	var (
		eventName string
		dataLines []string
	)

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")

		if line == "" {
			if len(dataLines) > 0 {
				return SSEEvent{Event: eventName, Data: strings.Join(dataLines, "\n")}, nil
			}
			eventName = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			eventName = strings.TrimSpace(value)
		case "data":
			if strings.TrimSpace(value) == doneSentinel {
				return SSEEvent{}, io.EOF
			}
			dataLines = append(dataLines, value)
		}
	}

	if err := s.scanner.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("SSE scanner error: %w", err)
	}

	// A producer may close the connection without the trailing blank line.
	if len(dataLines) > 0 {
		return SSEEvent{Event: eventName, Data: strings.Join(dataLines, "\n")}, nil
	}

	return SSEEvent{}, io.EOF
}
