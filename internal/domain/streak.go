// Package domain contains core business types and interfaces.
//
// This file defines the pure streak arithmetic. All dates here are
// midnight-truncated calendar dates in the user's local zone, produced by
// the tzdate resolver. The persistence layer never does gap math; it only
// stores the state this file computes.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// StreakState is the streak portion of an account, extracted so the
// arithmetic can be tested without a database.
type StreakState struct {
	Current           int
	Longest           int
	LastDate          *time.Time // nil until the first counted activity
	ResetAcknowledged bool
}

// StreakSnapshot is the read-model returned to clients.
type StreakSnapshot struct {
	Current  int
	Longest  int
	IsActive bool // Activity today or yesterday keeps the streak alive
	WasReset bool // A break was detected and the user has not acknowledged it
}

// DayGap returns the whole calendar days between two midnight dates.
// Both arguments must already be midnight-truncated in the same location.
func DayGap(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// Broken reports whether the streak is broken as of today: more than one
// calendar day has passed since the last counted activity.
func (s StreakState) Broken(today time.Time) bool {
	if s.Current == 0 {
		return false
	}
	if s.LastDate == nil {
		return true
	}
	return DayGap(*s.LastDate, today) > 1
}

// Validate applies break detection and returns the corrected state.
// A break zeroes the current streak and clears the acknowledgment flag;
// the longest streak is never reduced. wasReset reports whether this call
// (or an earlier unacknowledged one) left a reset pending.
func (s StreakState) Validate(today time.Time) (StreakState, bool) {
	if s.Broken(today) {
		s.Current = 0
		s.ResetAcknowledged = false
	}
	wasReset := s.Current == 0 && !s.ResetAcknowledged
	return s, wasReset
}

// StreakAdvance is the outcome of recording a day of activity.
type StreakAdvance struct {
	State     StreakState
	Advanced  bool // Counter moved (first activity of a new local day)
	Duplicate bool // Activity already counted for today
}

// Record counts activity for today and returns the new state.
// Same-day activity is a no-op; a consecutive day increments; anything
// else starts over at 1. The longest streak only ever grows.
func (s StreakState) Record(today time.Time) StreakAdvance {
	if s.LastDate != nil && DayGap(*s.LastDate, today) == 0 {
		return StreakAdvance{State: s, Duplicate: true}
	}

	if s.LastDate != nil && DayGap(*s.LastDate, today) == 1 {
		s.Current++
	} else {
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	d := today
	s.LastDate = &d

	return StreakAdvance{State: s, Advanced: true}
}

// Snapshot builds the client-facing view of the state as of today.
func (s StreakState) Snapshot(today time.Time) StreakSnapshot {
	active := false
	if s.LastDate != nil && DayGap(*s.LastDate, today) <= 1 {
		active = true
	}
	return StreakSnapshot{
		Current:  s.Current,
		Longest:  s.Longest,
		IsActive: active,
		WasReset: s.Current == 0 && !s.ResetAcknowledged,
	}
}

// StreakLogEntry is one append-only row in the activity calendar.
// The (AccountID, Date) pair is unique; duplicate inserts are no-ops.
type StreakLogEntry struct {
	ID        int64
	AccountID uuid.UUID
	Date      time.Time
	CreatedAt time.Time
}
