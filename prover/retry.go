package prover

import "fmt"

// Attempt runs fn up to maxTries times, returning nil on the first success.
// The last failure is returned with the try count attached.
func Attempt(maxTries int, fn func() error) error {
	if maxTries < 1 {
		return fmt.Errorf("maxTries must be at least 1, got %d", maxTries)
	}
	var err error
	for try := 0; try < maxTries; try++ {
		if err = fn(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed after %d tries: %w", maxTries, err)
}
