// Package ratelimit provides a token-bucket outbound byte limiter for a
// Session (spec §4.10: policy, not protocol). It is grounded on
// sad-emu-salmon-cannon's throttledConn/SharedLimiter, simplified to a
// single bucket satisfying blizzard.RateLimiter.
package ratelimit

import (
	"github.com/juju/ratelimit"
)

// Limiter throttles callers to bytesPerSec, with burst extra capacity.
// It satisfies blizzard.RateLimiter without importing the root package,
// so it stays usable outside a Session too.
type Limiter struct {
	bucket *ratelimit.Bucket
}

// New returns a Limiter allowing bytesPerSec sustained throughput with up
// to burst bytes of instantaneous capacity. A burst smaller than
// bytesPerSec is raised to bytesPerSec.
func New(bytesPerSec int64, burst int64) *Limiter {
	if burst < bytesPerSec {
		burst = bytesPerSec
	}
	return &Limiter{bucket: ratelimit.NewBucketWithRate(float64(bytesPerSec), burst)}
}

// Wait blocks until n bytes' worth of tokens are available.
func (l *Limiter) Wait(n int) {
	l.bucket.Wait(int64(n))
}
