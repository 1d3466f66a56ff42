package identity

import "time"

// CooldownExpired reports whether the attempt at t falls outside the window
// described by pattern, a time.ParseDuration string such as "24h". Attempts
// older than the window no longer count against the login limit.
func CooldownExpired(t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	return t.Before(time.Now().Add(-duration)), nil
}
