// Package push maintains the long-lived notification stream. Delivered
// records are refresh hints, never authoritative state: consumers
// re-fetch from the providers. Duplicates are possible and must be
// tolerated downstream.
package push

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandeepkv93/agendad/internal/model"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

type ConnState string

const (
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
)

var ErrStreamClosed = errors.New("push: stream closed")

type Stream struct {
	url    string
	token  string
	http   *http.Client
	events chan model.Notification
	states chan ConnState
}

func NewStream(baseURL, token string) *Stream {
	return &Stream{
		url:   strings.TrimRight(baseURL, "/") + "/api/notifications/stream",
		token: token,
		// No overall timeout: the response body is a long-lived stream.
		http:   &http.Client{},
		events: make(chan model.Notification, 32),
		states: make(chan ConnState, 8),
	}
}

func (s *Stream) Events() <-chan model.Notification {
	return s.events
}

func (s *Stream) States() <-chan ConnState {
	return s.states
}

// Run connects and re-connects until ctx is cancelled, with
// exponential backoff reset after each successful connect. It owns the
// events and states channels and closes them on exit.
func (s *Stream) Run(ctx context.Context) {
	defer close(s.events)
	defer close(s.states)

	backoff := initialBackoff
	for {
		connected, _ := s.connect(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = initialBackoff
		}
		s.report(StateDisconnected)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// connect performs one subscription attempt and reads frames until the
// connection drops. It reports whether the stream was established.
func (s *Stream) connect(ctx context.Context) (bool, error) {
	endpoint := s.url
	if s.token != "" {
		endpoint += "?token=" + url.QueryEscape(s.token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, errors.New("push: unexpected status " + resp.Status)
	}

	s.report(StateConnected)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var frame frameState
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if n, ok := frame.decode(); ok {
				select {
				case s.events <- n:
				case <-ctx.Done():
					return true, ctx.Err()
				}
			}
			frame = frameState{}
			continue
		}
		frame.consume(line)
	}
	return true, scanner.Err()
}

func (s *Stream) report(state ConnState) {
	select {
	case s.states <- state:
	default:
	}
}

// frameState accumulates one server-sent event frame. Only frames named
// "notification" with a decodable payload are delivered; everything
// else is skipped.
type frameState struct {
	event string
	data  strings.Builder
}

func (f *frameState) consume(line string) {
	switch {
	case strings.HasPrefix(line, "event:"):
		f.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
	case strings.HasPrefix(line, "data:"):
		if f.data.Len() > 0 {
			f.data.WriteByte('\n')
		}
		f.data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
	}
	// id: and retry: fields are ignored; reconnect policy is ours.
}

func (f *frameState) decode() (model.Notification, bool) {
	if f.event != "notification" || f.data.Len() == 0 {
		return model.Notification{}, false
	}
	var n model.Notification
	if err := json.Unmarshal([]byte(f.data.String()), &n); err != nil {
		return model.Notification{}, false
	}
	if err := n.Validate(); err != nil {
		return model.Notification{}, false
	}
	return n, true
}
