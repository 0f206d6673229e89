package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServerErrorBackoffCapsAtEightSeconds(t *testing.T) {
	assert.Equal(t, time.Second, ServerErrorBackoff(1))
	assert.Equal(t, 2*time.Second, ServerErrorBackoff(2))
	assert.Equal(t, 8*time.Second, ServerErrorBackoff(10))
}

func TestRateLimitBackoffNoHeaderCapsAtFallback(t *testing.T) {
	assert.Equal(t, 30*time.Second, RateLimitBackoffNoHeader(1, 180*time.Second))
	assert.Equal(t, 180*time.Second, RateLimitBackoffNoHeader(10, 180*time.Second))
}

func TestBackoffAfterRetryAfterClamps(t *testing.T) {
	d := BackoffAfterRetryAfter(-5*time.Second, 2*time.Second, 900*time.Second)
	assert.Equal(t, time.Second, d)

	d = BackoffAfterRetryAfter(2000*time.Second, 2*time.Second, 900*time.Second)
	assert.Equal(t, 900*time.Second, d)
}

func TestRateLimitStateWaitDurationProactiveThreshold(t *testing.T) {
	s := &RateLimitState{
		Limit:              100,
		Remaining:          0,
		ResetUnix:          time.Now().Add(30 * time.Second).Unix(),
		ResetBuffer:        time.Second,
		MaxWait:            900 * time.Second,
		ProactiveThreshold: 0,
	}
	wait := s.WaitDuration(time.Now())
	assert.Greater(t, wait, time.Duration(0))
}

func TestRateLimitStateWaitDurationNoneWhenFreshQuota(t *testing.T) {
	s := &RateLimitState{
		Limit:              100,
		Remaining:          100,
		ResetUnix:          time.Now().Add(30 * time.Second).Unix(),
		ProactiveThreshold: 0,
		PacingUsageRatio:   0.7,
	}
	assert.Equal(t, time.Duration(0), s.WaitDuration(time.Now()))
}

func TestRateLimitStateUpdateIgnoresMissingHeaders(t *testing.T) {
	s := &RateLimitState{Limit: 10, Remaining: 5, ResetUnix: 100}
	s.Update(nil)
	assert.Equal(t, 10, s.Limit)
	assert.Equal(t, 5, s.Remaining)
}
