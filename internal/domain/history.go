package domain

// DayRecord is the server-derived per-date aggregate behind the heatmap.
// The client treats it as read-only. CompletionRate is the completed/available
// habit ratio in [0,1]; RateKnown is false when no habits were scheduled.
type DayRecord struct {
	CompletedTasks  []string
	CompletedHabits []string
	JournalEntries  []string
	CompletionRate  float64
	RateKnown       bool
}

// CombinedCount returns the completed tasks + habits total for the combined
// heatmap metric.
func (r DayRecord) CombinedCount() int {
	return len(r.CompletedTasks) + len(r.CompletedHabits)
}

// TaskCount returns the completed task total for the task-count metric.
func (r DayRecord) TaskCount() int {
	return len(r.CompletedTasks)
}
