// Package clock corrects for skew between the local wall clock and the
// server's reported time, so that overdue and countdown calculations
// agree with the server regardless of client clock drift.
package clock

import "time"

// Sync tracks the most recent offset sample between local and server
// time. The single latest sample wins; no smoothing. The zero value is
// usable and reports local time until the first sample arrives.
type Sync struct {
	nowFn   func() time.Time
	offset  time.Duration
	sampled bool
}

func New() *Sync {
	return &Sync{nowFn: time.Now}
}

// NewWithNow injects the local time source, for tests.
func NewWithNow(nowFn func() time.Time) *Sync {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Sync{nowFn: nowFn}
}

// Update records an offset sample from a server-reported unix
// timestamp in seconds. Zero and negative timestamps are ignored.
func (s *Sync) Update(serverUnixSeconds int64) {
	if serverUnixSeconds <= 0 {
		return
	}
	server := time.Unix(serverUnixSeconds, 0)
	s.offset = s.now().Sub(server)
	s.sampled = true
}

// Now returns the local clock corrected by the last observed offset.
func (s *Sync) Now() time.Time {
	return s.now().Add(-s.offset)
}

// Offset returns the current skew estimate (local minus server).
func (s *Sync) Offset() time.Duration {
	return s.offset
}

// Sampled reports whether a server timestamp has been observed yet.
func (s *Sync) Sampled() bool {
	return s.sampled
}

func (s *Sync) now() time.Time {
	if s.nowFn == nil {
		return time.Now()
	}
	return s.nowFn()
}
