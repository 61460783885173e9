// Package ratelimit decides whether a tag may accept another alert.
//
// The policy is deliberately coarse: one alert per tag per cooldown window,
// regardless of who triggers it. The decision is a pure function of the
// current time and the timestamp of the last ledger entry — no per-scanner
// or per-IP state, no in-process bookkeeping. That makes the service
// stateless: the ledger tail in the database is the only input.
package ratelimit

import "time"

// Cooldown is the minimum interval between two accepted alerts for the
// same tag.
const Cooldown = 60 * time.Second

// Decision is the outcome of an admit check.
type Decision struct {
	// OK is true when the alert may be accepted.
	OK bool
	// RetryAfter is how long the caller must wait when OK is false.
	// Zero when OK is true.
	RetryAfter time.Duration
}

// Admit checks the cooldown against the last accepted alert.
// last is the timestamp of the tail ledger entry, or nil when the tag has
// never been alerted.
func Admit(last *time.Time, now time.Time) Decision {
	if last == nil {
		return Decision{OK: true}
	}
	elapsed := now.Sub(*last)
	if elapsed >= Cooldown {
		return Decision{OK: true}
	}
	return Decision{RetryAfter: Cooldown - elapsed}
}
