package reactor

// TaskQueue accepts jobs to run after the current synchronous work unwinds.
// Deferred watchers submit one job per triggering write; jobs are never
// merged.
type TaskQueue interface {
	Submit(job func())
}

// MicrotaskQueue is a FIFO drained explicitly by its owner, typically at the
// end of an event-loop turn.
type MicrotaskQueue struct {
	jobs []func()
}

func NewMicrotaskQueue() *MicrotaskQueue {
	return &MicrotaskQueue{}
}

func (q *MicrotaskQueue) Submit(job func()) {
	q.jobs = append(q.jobs, job)
}

func (q *MicrotaskQueue) Len() int {
	return len(q.jobs)
}

// Drain runs queued jobs in submission order until the queue is empty,
// including jobs submitted by the jobs themselves, and returns how many ran.
func (q *MicrotaskQueue) Drain() int {
	ran := 0
	for len(q.jobs) > 0 {
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		job()
		ran++
	}
	return ran
}
