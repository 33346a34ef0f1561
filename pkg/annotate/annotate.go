// Package annotate implements the Annotation Worker contract (spec §4.13):
// a single background execution context that consumes (filename,
// variations) pairs from a bounded queue and renders an annotated copy of
// each image, without ever blocking the generation loop. Adapted from the
// teacher's Prefetcher: a WaitGroup-tracked goroutine, reshaped from
// one-shot per-call rendering into a persistent worker loop reading off a
// channel; shutdown closes that channel.
package annotate

import (
	"log/slog"
	"sync"
	"time"
)

// Renderer draws the annotation overlay (position, font size, background
// opacity, text color, selected keys) onto the image at path and writes
// the annotated result. It is supplied by the caller; this package only
// owns scheduling.
type Renderer interface {
	Annotate(path string, variations map[string]string) error
}

// Config controls rendering placement and content.
type Config struct {
	Position          string
	FontSize          int
	BackgroundOpacity float64
	TextColor         string
	Keys              []string
}

const defaultQueueSize = 256

type job struct {
	path       string
	variations map[string]string
}

// Worker runs annotation rendering on a single background goroutine,
// reading from a bounded channel with drop-oldest overflow.
type Worker struct {
	renderer Renderer
	cfg      Config
	logger   *slog.Logger

	queue    chan job
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu      sync.Mutex
	dropped int
}

// New starts the worker's background goroutine.
func New(renderer Renderer, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		queue:    make(chan job, defaultQueueSize),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue submits one image for annotation. It never blocks: on a full
// queue the oldest pending job is dropped to make room, and a warning is
// logged (§5 backpressure policy).
func (w *Worker) Enqueue(path string, variations map[string]string) {
	j := job{path: path, variations: variations}
	for {
		select {
		case w.queue <- j:
			return
		default:
		}

		select {
		case dropped := <-w.queue:
			w.mu.Lock()
			w.dropped++
			w.mu.Unlock()
			w.logger.Warn("annotation queue full, dropping oldest", "dropped_path", dropped.path)
		default:
			// Another goroutine drained it between our two selects; retry.
		}
	}
}

// run drains the queue until it is closed (by Stop), rendering each queued
// job in order. Closing rather than a separate cancel signal means Stop's
// grace period genuinely bounds draining remaining work rather than
// abandoning it mid-queue.
func (w *Worker) run() {
	defer w.wg.Done()
	for j := range w.queue {
		if err := w.renderer.Annotate(j.path, j.variations); err != nil {
			w.logger.Warn("annotation failed", "path", j.path, "error", err)
		}
	}
}

// Stop closes the queue and waits up to timeout for the worker to drain
// it. It returns whether the worker fully drained before the grace period
// elapsed; if it times out, still-queued jobs may not have been rendered
// yet (the goroutine keeps draining in the background, but the caller
// stops waiting on it).
func (w *Worker) Stop(timeout time.Duration) bool {
	w.stopOnce.Do(func() { close(w.queue) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Dropped returns the number of jobs discarded so far due to queue
// overflow.
func (w *Worker) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}
