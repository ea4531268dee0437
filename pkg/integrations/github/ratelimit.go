package github

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// lowWaterMark is the remaining-request threshold below which the client
// pauses until the rate-limit window resets instead of burning the last
// requests and tripping a secondary limit.
const lowWaterMark = 10

// rateState tracks the primary rate-limit headers GitHub returns on every
// response. remaining < 0 means no response has been observed yet.
type rateState struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
}

func newRateState() *rateState {
	return &rateState{remaining: -1}
}

// observe updates the state from a response's rate-limit headers. Missing
// or malformed headers leave the previous state untouched.
func (s *rateState) observe(h http.Header) {
	rem, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = rem
	if epoch, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		s.reset = time.Unix(epoch, 0)
	}
}

// waitNeeded returns how long to pause before the next request, or zero.
// A pause is needed only when the observed remaining budget is below the
// low-water mark and the reset is still ahead; one extra second covers
// clock skew against GitHub's reset timestamp.
func (s *rateState) waitNeeded(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remaining < 0 || s.remaining >= lowWaterMark {
		return 0
	}
	if d := s.reset.Sub(now); d > 0 {
		return d + time.Second
	}
	return 0
}

// retryDelay picks the wait before retrying a throttled request: the
// Retry-After header when present, otherwise the window reset, otherwise
// the caller's fallback backoff.
func retryDelay(h http.Header, now time.Time, fallback time.Duration) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if epoch, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if d := time.Unix(epoch, 0).Sub(now); d > 0 {
			return d + time.Second
		}
	}
	return fallback
}
