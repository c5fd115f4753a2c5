package transport

import "time"

const maxBackoff = 30 * time.Second

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff. Zero or negative failures yield base.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
