package ir

import "time"

// Clock supplies wall time for created_at stamps and snapshot markers.
// Production code uses SystemClock; tests pin time with testutil.FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real UTC time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// CreatedAtLayout formats LearningEntry.CreatedAt.
const CreatedAtLayout = time.RFC3339

// DateLayout formats per-prior last_updated values written by snapshots.
const DateLayout = "2006-01-02"
