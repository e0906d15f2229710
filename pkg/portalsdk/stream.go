package portalsdk

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// streamBuffer bounds how many undelivered events a stream holds. Receivers
// re-fetch authoritative state per event, so dropping under backpressure
// only delays convergence until the next event.
const streamBuffer = 16

// SubscribeChanges opens the post's SSE change stream. The returned stream
// stays open until Close is called, ctx is cancelled or the server ends the
// connection.
func (c *Client) SubscribeChanges(ctx context.Context, postID string, tables ...string) (ChangeStream, error) {
	path := "/v1/posts/" + postID + "/stream"
	if len(tables) > 0 {
		path += "?tables=" + strings.Join(tables, ",")
	}

	streamCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.url(path), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// No overall timeout: the connection is long-lived. Cancellation runs
	// through streamCtx instead.
	httpClient := &http.Client{Transport: c.HTTPClient.Transport}

	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	s := &sseStream{
		body:   resp.Body,
		cancel: cancel,
		events: make(chan ChangeEvent, streamBuffer),
	}
	go s.run()

	return s, nil
}

type sseStream struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	events chan ChangeEvent

	closeOnce sync.Once
}

func (s *sseStream) Events() <-chan ChangeEvent { return s.events }

// Close tears the stream down. Safe to call more than once.
func (s *sseStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.body.Close()
	})
	return nil
}

// run parses the SSE frame stream: "data:" lines accumulate until a blank
// line terminates the frame. Comment lines (heartbeats) are skipped.
func (s *sseStream) run() {
	defer close(s.events)
	defer s.Close()

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if data.Len() > 0 {
				s.dispatch(data.String())
				data.Reset()
			}

		case strings.HasPrefix(line, ":"):
			// heartbeat

		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

func (s *sseStream) dispatch(payload string) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return
	}

	select {
	case s.events <- ev:
	default:
		// Receiver is behind. The event only signals "re-fetch", so the
		// one already queued covers this one too.
	}
}
