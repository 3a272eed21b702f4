package render

import (
	"context"
	"fmt"
	"sync"
)

// Job compiles one diagram and returns its SVG markup.
type Job func(ctx context.Context) (string, error)

// Queue runs jobs one at a time in submission order. The compiler mutates
// process-wide configuration between renders, so two jobs from the same scope
// must never observe each other mid-flight; each independent view (editor,
// history drawer, thumbnail grid) owns its own Queue so unrelated views do
// not serialize against each other.
type Queue struct {
	mu   sync.Mutex
	tail chan struct{}
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue blocks until all previously submitted jobs have settled, runs job,
// and returns its result to this caller only. A failing or panicking job
// never stalls the queue: the next job runs regardless. If ctx is cancelled
// while waiting, the caller's slot is released once its predecessor settles,
// preserving the no-overlap guarantee for everyone behind it.
func (q *Queue) Enqueue(ctx context.Context, job Job) (string, error) {
	done := make(chan struct{})

	q.mu.Lock()
	prev := q.tail
	q.tail = done
	q.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				close(done)
			}()
			return "", ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		close(done)
		return "", err
	}

	svg, err := runIsolated(ctx, job)
	close(done)
	return svg, err
}

func runIsolated(ctx context.Context, job Job) (svg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render job panic: %v", r)
		}
	}()
	return job(ctx)
}
