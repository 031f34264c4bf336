package tech

// NextStatus advances s along not-started -> in-progress -> completed ->
// not-started. Unknown values restart the cycle at in-progress, as if they
// were not-started.
func NextStatus(s Status) Status {
	switch s {
	case StatusNotStarted:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	case StatusCompleted:
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}

// DeriveStatus computes the status an item must have given its notes.
//
//   - no notes: existing is kept; status is user-controlled.
//   - every note completed: completed.
//   - some completed: in-progress.
//   - none completed: existing, except completed drops to in-progress.
func DeriveStatus(existing Status, notes []Note) Status {
	if len(notes) == 0 {
		return existing
	}

	done := 0
	for _, n := range notes {
		if n.Completed {
			done++
		}
	}

	switch {
	case done == len(notes):
		return StatusCompleted
	case done > 0:
		return StatusInProgress
	case existing == StatusCompleted:
		return StatusInProgress
	default:
		return existing
	}
}
