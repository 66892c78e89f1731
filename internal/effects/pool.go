package effects

import (
	"context"
	"image"
	"runtime"
	"sync"

	"github.com/example/markshot/internal/ops"
)

// Request asks a worker to run one effect. Snapshot is owned by the request
// and must not be modified by the sender after Submit.
type Request struct {
	ID      uint64
	Index   int
	Version uint64
	Op      ops.Operation
	// Snapshot is the composite of every active operation before Index,
	// clipped to the effect region.
	Snapshot *image.RGBA
}

// Result carries the outcome of a Request back to the session. Image is
// owned by the receiver once sent.
type Result struct {
	ID      uint64
	Index   int
	Version uint64
	Image   *image.RGBA
	Err     error
}

// Pool runs effect requests on a fixed set of goroutines. Results arrive in
// completion order, not submission order.
type Pool struct {
	engine  Engine
	workers int

	reqs    chan Request
	results chan Result

	mu      sync.Mutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithEngine sets the engine workers run requests through.
func WithEngine(e Engine) PoolOption { return func(p *Pool) { p.engine = e } }

// WithQueue sets how many requests may wait for a worker.
func WithQueue(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.reqs = make(chan Request, n)
		}
	}
}

// NewPool returns a pool with the given number of workers. Zero or less uses
// GOMAXPROCS.
func NewPool(workers int, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		engine:  NewEngine(),
		workers: workers,
		reqs:    make(chan Request, 4*workers),
	}
	for _, o := range opts {
		o(p)
	}
	p.results = make(chan Result, cap(p.reqs)+workers)
	return p
}

// Start launches the workers. They stop when ctx is cancelled or Close is
// called. Start is a no-op after the first call.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-p.reqs:
			if !ok {
				return
			}
			img, err := p.engine.Apply(req.Op, req.Snapshot)
			res := Result{ID: req.ID, Index: req.Index, Version: req.Version, Image: img, Err: err}
			select {
			case p.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit queues req without blocking. It returns false when the pool is
// closed or the queue is full; the caller then computes the effect inline.
func (p *Pool) Submit(req Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.started {
		return false
	}
	select {
	case p.reqs <- req:
		return true
	default:
		return false
	}
}

// Results delivers finished requests. The channel is closed once every
// worker has exited.
func (p *Pool) Results() <-chan Result { return p.results }

// Close stops accepting requests. Queued requests are still processed unless
// the start context is cancelled.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.reqs)
	if !p.started {
		close(p.results)
	}
}
