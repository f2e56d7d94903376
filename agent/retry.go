package main

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// postRetrier retries transient submission failures with capped exponential
// backoff and jitter. Validation rejections and other permanent errors are
// returned immediately.
type postRetrier struct {
	initial    time.Duration
	max        time.Duration
	maxRetries int
}

func newPostRetrier(initialMs, maxMs, maxRetries int) *postRetrier {
	if initialMs <= 0 {
		initialMs = 500
	}
	if maxMs < initialMs {
		maxMs = initialMs
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &postRetrier{
		initial:    time.Duration(initialMs) * time.Millisecond,
		max:        time.Duration(maxMs) * time.Millisecond,
		maxRetries: maxRetries,
	}
}

func (r *postRetrier) do(fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= r.maxRetries || !isTransient(err) {
			return err
		}
		delay := r.backoff(attempt)
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("sleep", delay).Msg("retrying report")
		time.Sleep(delay)
	}
}

// backoff doubles the delay per attempt up to the cap, then jitters the
// result between half and the full value.
func (r *postRetrier) backoff(attempt int) time.Duration {
	d := r.initial
	for i := 0; i < attempt && d < r.max; i++ {
		d *= 2
	}
	if d > r.max {
		d = r.max
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// isTransient reports whether a submission error is worth retrying: network
// failures and 5xx/429 responses are, everything else is not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var statusErr serverStatusError
	return errors.As(err, &statusErr)
}

// serverStatusError wraps a retryable HTTP status from the server.
type serverStatusError int

func (e serverStatusError) Error() string {
	return fmt.Sprintf("server returned %d %s", int(e), http.StatusText(int(e)))
}

func retryableStatus(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode >= 500 && resp.StatusCode < 600 {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests
}
