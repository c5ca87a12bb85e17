// Package sse extracts JSON payloads from server-sent event streams.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DefaultMaxBytes bounds how much raw stream input a single decode may consume.
const DefaultMaxBytes = 512_000

const doneSentinel = "[DONE]"

// StreamTooLargeError reports that the stream exceeded the byte cap.
type StreamTooLargeError struct {
	Limit int64
}

func (e StreamTooLargeError) Error() string {
	return fmt.Sprintf("sse stream exceeded %d bytes", e.Limit)
}

// ReadLastJSONObject scans an event stream and returns the last value whose
// `data:` payload parsed as JSON, or nil if none was seen. Scanning stops at
// EOF or at a literal [DONE] payload. Non-JSON payloads are keepalive noise
// and are skipped; payloads that look like JSON objects but fail strict
// parsing get one repair attempt before being skipped.
func ReadLastJSONObject(ctx context.Context, r io.Reader, maxBytes int64) (any, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	scanner := bufio.NewScanner(&boundedReader{ctx: ctx, r: r, remaining: maxBytes, limit: maxBytes})
	scanner.Buffer(make([]byte, 0, 64*1024), int(maxBytes)+1)

	var last any

	for scanner.Scan() {
		// The field name must start the line; an indented "data:" is not a
		// data line in the SSE framing.
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == doneSentinel {
			// Terminal marker: whatever parsed last wins, even if the
			// reader already hit its cap on lookahead.
			return last, nil
		}

		if value, ok := parsePayload(payload); ok {
			last = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return last, nil
}

func parsePayload(payload string) (any, bool) {
	var value any
	if err := json.Unmarshal([]byte(payload), &value); err == nil {
		return value, true
	}

	// Model output is occasionally near-JSON (trailing commas, single
	// quotes). Only object-shaped payloads are worth repairing; anything
	// else is keepalive noise.
	if !strings.HasPrefix(payload, "{") {
		return nil, false
	}
	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, false
	}
	return value, true
}

// boundedReader enforces the cancellation and byte-cap contract: the context
// is checked before every read, and cumulative raw input beyond the limit
// fails the whole decode rather than truncating silently.
type boundedReader struct {
	ctx       context.Context
	r         io.Reader
	remaining int64
	limit     int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if err := b.ctx.Err(); err != nil {
		return 0, fmt.Errorf("sse read aborted: %w", err)
	}
	if b.remaining <= 0 {
		return 0, StreamTooLargeError{Limit: b.limit}
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	if b.remaining <= 0 && err == nil {
		// Allow exactly maxBytes, fail on the first byte past it. Probe
		// for EOF so a stream of exactly the limit still succeeds.
		var probe [1]byte
		m, probeErr := b.r.Read(probe[:])
		if m > 0 {
			return n, StreamTooLargeError{Limit: b.limit}
		}
		if probeErr != nil && probeErr != io.EOF {
			return n, probeErr
		}
		return n, io.EOF
	}
	return n, err
}
