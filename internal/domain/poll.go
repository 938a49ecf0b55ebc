package domain

import "time"

// PollStats holds statistics about one poll cycle.
type PollStats struct {
	Fetched     int
	New         int
	Duplicate   int
	Dropped     int // listings without an identifier
	Published   int
	Errors      int
	MedianPrice float64
	Duration    time.Duration
}
