package scheduler

import (
	"fmt"
	"sync"

	"github.com/vk/plangraph/internal/compiler"
)

// Scheduler tracks completion over one compiled plan. It is safe for
// concurrent use.
type Scheduler struct {
	order   []string
	pending map[string]int
	succ    map[string][]string

	mu        sync.Mutex
	started   map[string]bool
	completed map[string]bool
}

// New returns a scheduler with no step started.
func New(res *compiler.Result) *Scheduler {
	s := &Scheduler{
		order:     res.ExecutionOrder,
		pending:   make(map[string]int, len(res.ExecutionOrder)),
		succ:      make(map[string][]string, len(res.ExecutionOrder)),
		started:   make(map[string]bool),
		completed: make(map[string]bool),
	}
	for _, id := range res.ExecutionOrder {
		s.pending[id] = 0
	}
	for _, e := range res.Graph.Edges() {
		s.pending[e.To]++
		s.succ[e.From] = append(s.succ[e.From], e.To)
	}
	return s
}

// Ready returns the steps that have not started and whose predecessors have
// all completed, in execution order. The returned steps are marked started.
func (s *Scheduler) Ready() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ready []string
	for _, id := range s.order {
		if !s.started[id] && s.pending[id] == 0 {
			s.started[id] = true
			ready = append(ready, id)
		}
	}
	return ready
}

// Complete records that id finished.
func (s *Scheduler) Complete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started[id] {
		return fmt.Errorf("step %q was never started", id)
	}
	if s.completed[id] {
		return fmt.Errorf("step %q already completed", id)
	}
	s.completed[id] = true
	for _, next := range s.succ[id] {
		s.pending[next]--
	}
	return nil
}

// Done reports whether every step has completed.
func (s *Scheduler) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed) == len(s.order)
}

// Stages groups the plan into waves: every step of a wave can run in
// parallel once all earlier waves are done.
func Stages(res *compiler.Result) [][]string {
	s := New(res)
	var stages [][]string
	for {
		wave := s.Ready()
		if len(wave) == 0 {
			return stages
		}
		for _, id := range wave {
			_ = s.Complete(id)
		}
		stages = append(stages, wave)
	}
}
