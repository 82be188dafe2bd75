package http

import "time"

// rateLimiter is a token bucket owned by a single read loop; it is not safe for
// concurrent use.
type rateLimiter struct {
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time
}

// newRateLimiter returns nil, which allows everything, when perSecond <= 0.
func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &rateLimiter{
		rate:   perSecond,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
		now:    time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}

	now := r.now()
	if elapsed := now.Sub(r.last).Seconds(); elapsed > 0 {
		r.tokens += elapsed * r.rate
		if r.tokens > r.burst {
			r.tokens = r.burst
		}
	}
	r.last = now

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
