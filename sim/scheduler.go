package sim

import (
	"container/heap"
	"time"
)

type event struct {
	at  time.Duration
	seq uint64 // insertion order, keeps events at the same instant first-in first-out
	fn  func()
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*event)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Now returns the current virtual time
func (n *Network) Now() time.Duration {
	return n.now
}

// ScheduleTask runs fun at virtual time at. Times in the past run at the current time.
func (n *Network) ScheduleTask(fun func(), at time.Duration) {
	n.seq++
	heap.Push(&n.queue, &event{at: max(at, n.now), seq: n.seq, fn: fun})
}

// RepeatTask runs fun every interval, starting one interval from now
func (n *Network) RepeatTask(fun func(), every time.Duration) {
	var next func()
	next = func() {
		fun()
		n.ScheduleTask(next, n.now+every)
	}
	n.ScheduleTask(next, n.now+every)
}

// Run processes events until the queue is empty or the next event is after until.
// The clock is left at until, so Run may be called again to continue the simulation.
func (n *Network) Run(until time.Duration) {
	for n.queue.Len() > 0 && n.queue[0].at <= until {
		e := heap.Pop(&n.queue).(*event)
		n.now = e.at
		e.fn()
	}
	n.now = max(n.now, until)
}

// RunFor advances the clock by d
func (n *Network) RunFor(d time.Duration) {
	n.Run(n.now + d)
}
