package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration_Range(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := Duration(d, DefaultJitter)
		assert.GreaterOrEqual(t, got, d)
		assert.LessOrEqual(t, got, d+d/2)
	}
}

func TestDuration_NoJitter(t *testing.T) {
	assert.Equal(t, time.Second, Duration(time.Second, 0))
	assert.Equal(t, time.Duration(0), Duration(0, DefaultJitter))
}

func TestExponentialBackoff_Capped(t *testing.T) {
	base := 100 * time.Millisecond
	maxBackoff := time.Second

	assert.Equal(t, maxBackoff, ExponentialBackoff(base, maxBackoff, 10, 0))
	assert.Equal(t, 400*time.Millisecond, ExponentialBackoff(base, maxBackoff, 2, 0))
	assert.Equal(t, base, ExponentialBackoff(base, maxBackoff, 0, 0))
}
