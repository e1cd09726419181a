package preview

import (
	"context"
	"sync"
)

// Scheduler runs tasks on a fixed number of workers. Decoding and resizing
// are CPU bound, so the viewer uses a single worker and previews run one
// at a time.
type Scheduler struct {
	slots chan struct{}
	wg    sync.WaitGroup
}

func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{slots: make(chan struct{}, workers)}
}

// Task is a handle to a unit of work started with Spawn.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Spawn queues fn. fn receives a context that is cancelled by Abort or
// when ctx is done; the task is only interrupted where fn checks it.
func (s *Scheduler) Spawn(ctx context.Context, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(t.done)
		defer cancel()

		select {
		case s.slots <- struct{}{}:
		case <-ctx.Done():
			t.err = ctx.Err()
			return
		}
		defer func() { <-s.slots }()

		if err := ctx.Err(); err != nil {
			t.err = err
			return
		}
		t.err = fn(ctx)
	}()
	return t
}

// Wait blocks until every spawned task has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Abort requests cancellation. It does not wait for the task.
func (t *Task) Abort() {
	t.cancel()
}

// Wait blocks until the task has finished and returns its error. A task
// aborted before it started returns context.Canceled.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
