package stack

import "sync"

// strand executes posted functions one at a time. A function posted while another one
// is running (including from inside of it) is queued and executed by the running
// goroutine once the current one returns, so callbacks never nest and never overlap.
type strand struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (s *strand) post(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if s.running {
		s.mu.Unlock()
		return
	}

	s.running = true

	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()
		next()
		s.mu.Lock()
	}

	s.queue = s.queue[:0]
	s.running = false
	s.mu.Unlock()
}
