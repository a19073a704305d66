// Package admission computes how many new distribution jobs may be started
// given a point-in-time snapshot of the backend's distribution counters.
package admission

// DistributionStatus is one tracked content record from the backend's status
// query: how many endpoints the content targets and how many distributions
// are currently in flight for it.
type DistributionStatus struct {
	Targeted         int
	NumberInProgress int
}

// Snapshot is a point-in-time set of distribution status records. It is
// pulled fresh from the backend on every admission check, never cached.
type Snapshot []DistributionStatus

// Config are the admission thresholds. Immutable for the process lifetime.
type Config struct {
	// InProgressThreshold is the in-flight count a heavily-targeted record
	// may reach before it counts against the concurrency budget.
	InProgressThreshold int

	// TargetThreshold splits content into the heavily-targeted tier
	// (Targeted > TargetThreshold) and the lightly-targeted tier.
	TargetThreshold int

	// MaxConcurrent is the global budget of busy records.
	MaxConcurrent int
}

// AvailableSlots returns how many additional items may be admitted right now.
//
// A record counts as busy when either:
//   - it is heavily targeted (Targeted > TargetThreshold) and its in-flight
//     count exceeds InProgressThreshold, or
//   - it is lightly targeted (Targeted <= TargetThreshold) and has any
//     in-flight distribution at all.
//
// The lightly-targeted branch deliberately ignores InProgressThreshold:
// narrow content is serialized outright, one in-flight instance is enough
// to hold its slot. Both comparisons are strict.
func AvailableSlots(snapshot Snapshot, cfg Config) int {
	busy := 0
	for _, rec := range snapshot {
		if rec.Targeted > cfg.TargetThreshold {
			if rec.NumberInProgress > cfg.InProgressThreshold {
				busy++
			}
			continue
		}
		if rec.NumberInProgress > 0 {
			busy++
		}
	}

	if busy >= cfg.MaxConcurrent {
		return 0
	}
	return cfg.MaxConcurrent - busy
}
