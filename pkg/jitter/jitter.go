// Package jitter добавляет случайную составляющую к интервалам повторов,
// чтобы повторные попытки разных горутин не совпадали по времени.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает d, увеличенную на случайную долю не больше jitterFactor.
// Результат лежит в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 || d <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*jitterFactor*float64(d))
}

// ExponentialBackoff удваивает base на каждую попытку (attempt с нуля), не превышая maxBackoff, и добавляет джиттер.
func ExponentialBackoff(base, maxBackoff time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for range attempt {
		backoff *= 2
		if backoff >= maxBackoff {
			backoff = maxBackoff
			break
		}
	}
	return Duration(backoff, jitterFactor)
}
