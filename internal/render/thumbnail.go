package render

import (
	"context"
	"sync"
)

// ThumbState is the reduced lifecycle of a list preview: a thumbnail either
// shows the last good SVG or a placeholder, never an error message.
type ThumbState int

const (
	ThumbPending ThumbState = iota
	ThumbRendered
	ThumbFailed
)

// ThumbnailSession renders one diagram card in a list view. Unlike the
// editor session there is no debounce, no pan-zoom and no direction rewrite:
// the stored source is rendered as-is with the low-detail configuration, one
// job per source change. All cards in a list share one Queue so a page of
// thumbnails never renders concurrently.
type ThumbnailSession struct {
	queue    *Queue
	compiler Compiler

	mu    sync.Mutex
	state ThumbState
	svg   string
	token uint64

	wg sync.WaitGroup
}

func NewThumbnailSession(queue *Queue, compiler Compiler) *ThumbnailSession {
	if queue == nil {
		queue = NewQueue()
	}
	return &ThumbnailSession{queue: queue, compiler: compiler}
}

// Render schedules a thumbnail render for source. A newer call supersedes an
// in-flight one; the stale result is discarded.
func (t *ThumbnailSession) Render(id, source string, theme Theme, hint Direction) {
	t.mu.Lock()
	t.token++
	token := t.token
	t.state = ThumbPending
	t.mu.Unlock()

	cfg := ThumbnailConfig(theme, hint)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		svg, err := t.queue.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
			return t.compiler.Render(ctx, id, source, cfg)
		})

		t.mu.Lock()
		defer t.mu.Unlock()
		if token != t.token {
			return
		}
		if err != nil {
			t.state = ThumbFailed
			t.svg = ""
			return
		}
		t.state = ThumbRendered
		t.svg = svg
	}()
}

func (t *ThumbnailSession) State() ThumbState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *ThumbnailSession) SVG() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.svg
}

// Wait blocks until scheduled renders settle. Test helper.
func (t *ThumbnailSession) Wait() {
	t.wg.Wait()
}

// RenderThumbnail is the synchronous form used by the HTTP thumbnail
// endpoint, where the caller already sits on a request goroutine.
func RenderThumbnail(ctx context.Context, q *Queue, c Compiler, id, source string, theme Theme, hint Direction) (string, error) {
	cfg := ThumbnailConfig(theme, hint)
	return q.Enqueue(ctx, func(ctx context.Context) (string, error) {
		return c.Render(ctx, id, source, cfg)
	})
}
