// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package treecache memoizes execution-tree reads for a single expression
// resolution.
//
// A Cache is created for one call, passed by reference through the resolvers
// and dropped when the call returns. It is never shared between calls or
// goroutines, so it holds no locks. Within its lifetime the backing store
// sees at most one GetByID per id and one Children per parent id.
package treecache

import (
	"context"

	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/nodestore"
)

// Op names the cached operation reported to an Observer.
type Op string

const (
	OpGet      Op = "get"
	OpChildren Op = "children"
)

// Observer is notified about every cache lookup.
type Observer interface {
	CacheHit(op Op)
	CacheMiss(op Op)
}

// Stats counts cache activity over the lifetime of one Cache. Every miss is
// exactly one store read.
type Stats struct {
	Hits   int
	Misses int
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver reports lookups to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// Cache is a call-scoped read-through cache over a nodestore.Store.
type Cache struct {
	store    nodestore.Store
	observer Observer

	byID     map[string]node.Execution
	children map[string][]string
	stats    Stats
}

// New creates an empty cache over store.
func New(store nodestore.Store, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		byID:     make(map[string]node.Execution),
		children: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the execution with the given id. Store errors are returned
// unchanged and are not memoized.
func (c *Cache) Get(ctx context.Context, id string) (node.Execution, error) {
	if e, ok := c.byID[id]; ok {
		c.hit(OpGet)
		return e, nil
	}
	c.miss(OpGet)

	e, err := c.store.GetByID(ctx, id)
	if err != nil {
		return node.Execution{}, err
	}
	c.byID[id] = e
	return e, nil
}

// ChildrenOf returns the children of parentID in sibling order. An empty
// result is memoized like any other. Fetched children also populate the
// by-id entries, so a later Get of a child costs no store read.
func (c *Cache) ChildrenOf(ctx context.Context, parentID string) ([]node.Execution, error) {
	if ids, ok := c.children[parentID]; ok {
		c.hit(OpChildren)
		return c.collect(ids), nil
	}
	c.miss(OpChildren)

	fetched, err := c.store.Children(ctx, parentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(fetched))
	for _, e := range fetched {
		ids = append(ids, e.ID)
		if _, ok := c.byID[e.ID]; !ok {
			c.byID[e.ID] = e
		}
	}
	c.children[parentID] = ids
	return c.collect(ids), nil
}

// Descendants returns every execution below id, depth first, each parent
// before its children and siblings in chain order. The execution itself is
// not included.
func (c *Cache) Descendants(ctx context.Context, id string) ([]node.Execution, error) {
	var out []node.Execution
	var walk func(parentID string) error
	walk = func(parentID string) error {
		kids, err := c.ChildrenOf(ctx, parentID)
		if err != nil {
			return err
		}
		for _, k := range kids {
			out = append(out, k)
			if err := walk(k.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(id); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the counters collected so far.
func (c *Cache) Stats() Stats {
	return c.stats
}

func (c *Cache) collect(ids []string) []node.Execution {
	out := make([]node.Execution, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Cache) hit(op Op) {
	c.stats.Hits++
	if c.observer != nil {
		c.observer.CacheHit(op)
	}
}

func (c *Cache) miss(op Op) {
	c.stats.Misses++
	if c.observer != nil {
		c.observer.CacheMiss(op)
	}
}
