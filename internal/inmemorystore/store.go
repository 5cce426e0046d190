// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package inmemorystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/nodestore"
)

// ErrEmptyID is returned by Put for an execution without an id.
var ErrEmptyID = errors.New("execution id is empty")

// Store implements nodestore.Store using maps and a mutex for thread-safe
// concurrent access.
type Store struct {
	mu       sync.RWMutex
	execs    map[string]node.Execution
	children map[string][]string // Key: parent id, Value: child ids in insertion order
}

var _ nodestore.Store = (*Store)(nil)

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{
		execs:    make(map[string]node.Execution),
		children: make(map[string][]string),
	}
}

// Put inserts or replaces executions. Replacing keeps the original insertion
// slot under the parent, so re-putting a record with a new status does not
// move it.
func (s *Store) Put(execs ...node.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range execs {
		if e.ID == "" {
			return ErrEmptyID
		}
		old, exists := s.execs[e.ID]
		if exists && old.ParentID != e.ParentID {
			s.children[old.ParentID] = remove(s.children[old.ParentID], e.ID)
			exists = false
		}
		s.execs[e.ID] = e
		if !exists && !e.IsRoot() {
			s.children[e.ParentID] = append(s.children[e.ParentID], e.ID)
		}
	}
	return nil
}

// GetByID returns the execution with the given id.
func (s *Store) GetByID(_ context.Context, id string) (node.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.execs[id]
	if !ok {
		return node.Execution{}, fmt.Errorf("%w: %q", nodestore.ErrNotFound, id)
	}
	return e, nil
}

// Children returns the children of parentID along their sibling chain.
func (s *Store) Children(_ context.Context, parentID string) ([]node.Execution, error) {
	s.mu.RLock()
	ids := s.children[parentID]
	out := make([]node.Execution, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.execs[id])
	}
	s.mu.RUnlock()

	return nodestore.OrderSiblings(out), nil
}

// Len returns the number of stored executions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.execs)
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
