package services

import (
	"container/heap"
	"sort"
	"time"
)

// queueEntry is a reference to a pending task, keyed by the time the task
// becomes eligible to run. Entries may go stale when a task is cancelled
// or cleared; the scheduler re-checks the stored task before running it.
type queueEntry struct {
	id         string
	eligibleAt time.Time
	createdAt  time.Time
	seq        uint64
}

// eligibilityQueue is a min-heap of entries ordered by eligibility time,
// then creation time, then sequence number.
type eligibilityQueue []queueEntry

func (q eligibilityQueue) Len() int { return len(q) }

func (q eligibilityQueue) Less(i, j int) bool {
	if !q[i].eligibleAt.Equal(q[j].eligibleAt) {
		return q[i].eligibleAt.Before(q[j].eligibleAt)
	}
	return createdBefore(q[i], q[j])
}

func (q eligibilityQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eligibilityQueue) Push(x any) { *q = append(*q, x.(queueEntry)) }

func (q *eligibilityQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	*q = old[:n-1]
	return entry
}

// popDue removes every entry eligible at now and returns them in creation
// order, oldest first.
func (q *eligibilityQueue) popDue(now time.Time) []queueEntry {
	var due []queueEntry
	for q.Len() > 0 && !now.Before((*q)[0].eligibleAt) {
		due = append(due, heap.Pop(q).(queueEntry))
	}
	sort.Slice(due, func(i, j int) bool {
		return createdBefore(due[i], due[j])
	})
	return due
}

// drop removes the entries whose ids are in ids and restores heap order.
func (q *eligibilityQueue) drop(ids map[string]bool) {
	if len(ids) == 0 {
		return
	}
	kept := (*q)[:0]
	for _, entry := range *q {
		if !ids[entry.id] {
			kept = append(kept, entry)
		}
	}
	*q = kept
	heap.Init(q)
}

// next returns the earliest eligibility time in the queue.
func (q eligibilityQueue) next() (time.Time, bool) {
	if len(q) == 0 {
		return time.Time{}, false
	}
	return q[0].eligibleAt, true
}

func createdBefore(a, b queueEntry) bool {
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.seq < b.seq
}
