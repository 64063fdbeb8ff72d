package clock

import (
	"testing"
	"time"
)

func TestZeroValueReportsLocalTime(t *testing.T) {
	local := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	s := NewWithNow(func() time.Time { return local })
	if !s.Now().Equal(local) {
		t.Fatalf("expected %v, got %v", local, s.Now())
	}
	if s.Sampled() {
		t.Fatal("expected no sample yet")
	}
}

func TestUpdateCorrectsSkew(t *testing.T) {
	const serverUnix = 1700000000
	serverNow := time.Unix(serverUnix, 0)
	// Local clock runs 5 seconds ahead of the server.
	local := serverNow.Add(5000 * time.Millisecond)

	s := NewWithNow(func() time.Time { return local })
	s.Update(serverUnix)

	if got := s.Offset(); got != 5000*time.Millisecond {
		t.Fatalf("expected offset 5s, got %v", got)
	}
	diff := s.Now().Sub(serverNow)
	if diff < -time.Millisecond || diff > time.Millisecond {
		t.Fatalf("corrected now off by %v", diff)
	}
}

func TestLatestSampleWins(t *testing.T) {
	local := time.Unix(1700000010, 0)
	s := NewWithNow(func() time.Time { return local })
	s.Update(1700000000)
	s.Update(1700000008)
	if got := s.Offset(); got != 2*time.Second {
		t.Fatalf("expected offset 2s from latest sample, got %v", got)
	}
}

func TestUpdateIgnoresInvalidTimestamps(t *testing.T) {
	local := time.Unix(1700000010, 0)
	s := NewWithNow(func() time.Time { return local })
	s.Update(1700000000)
	before := s.Offset()
	s.Update(0)
	s.Update(-5)
	if s.Offset() != before {
		t.Fatalf("expected offset unchanged, got %v", s.Offset())
	}
}
