package app

import (
	"net"
	"sync"
)

// worker is one registered connection goroutine.
type worker struct {
	id   string
	conn net.Conn
	done chan struct{}
}

// Registry tracks live connection workers so shutdown can reach them.
type Registry struct {
	mu      sync.Mutex
	workers map[string]*worker
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{workers: make(map[string]*worker)}
}

// Add registers conn under id. It returns false once CloseAll has run;
// the caller then owns conn and must close it.
func (r *Registry) Add(id string, conn net.Conn) (finish func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false
	}
	w := &worker{id: id, conn: conn, done: make(chan struct{})}
	r.workers[id] = w

	var once sync.Once
	return func() { once.Do(func() { close(w.done) }) }, true
}

// Reap removes workers that have finished and returns how many were removed.
func (r *Registry) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, w := range r.workers {
		select {
		case <-w.done:
			delete(r.workers, id)
			n++
		default:
		}
	}
	return n
}

// Len returns the number of registered workers, finished or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// CloseAll refuses further registrations and closes every connection that
// has not finished, unblocking its pending read. It returns the number of
// connections closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	n := 0
	for id, w := range r.workers {
		select {
		case <-w.done:
		default:
			_ = w.conn.Close()
			n++
		}
		delete(r.workers, id)
	}
	return n
}
