package pipeline

// RowIDAssigner hands out globally unique, monotonically increasing trip
// ids in contiguous blocks, one block per batch. The pipeline is
// single-threaded and calls AssignBlock exactly once per batch in input
// order; there is no synchronization because there is no concurrency.
type RowIDAssigner struct {
	next int64
}

// AssignBlock reserves n ids and returns the first of the block
// [first, first+n).
func (a *RowIDAssigner) AssignBlock(n int) int64 {
	first := a.next
	a.next += int64(n)
	return first
}

// Assigned returns the cumulative count of ids handed out so far.
func (a *RowIDAssigner) Assigned() int64 {
	return a.next
}
