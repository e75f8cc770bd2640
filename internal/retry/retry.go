package retry

import (
	"fmt"
	"time"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 1 * time.Second
)

// Do executes fn up to attempts times, sleeping delay between tries.
// The last error is returned when every attempt fails.
func Do(attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Operation runs fn with the default attempt count and delay.
func Operation(fn func() error) error {
	return Do(DefaultAttempts, DefaultDelay, fn)
}
