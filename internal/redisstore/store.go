// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package redisstore implements nodestore.Store on Redis.
//
// Layout, under a configurable key prefix:
//
//	<prefix>exec:<id>          JSON execution record
//	<prefix>children:<parent>  sorted set of child ids, scored by insertion
//	<prefix>seq                insertion counter
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/nodestore"
)

// DefaultPrefix is used when Options.Prefix is empty.
const DefaultPrefix = "plangraph:"

// Options configures a Store.
type Options struct {
	Prefix string
}

// record is the stored JSON shape of an execution.
type record struct {
	ID                 string          `json:"id"`
	ParentID           string          `json:"parent_id,omitempty"`
	PreviousID         string          `json:"previous_id,omitempty"`
	NextID             string          `json:"next_id,omitempty"`
	Status             string          `json:"status"`
	Identifier         string          `json:"identifier"`
	Name               string          `json:"name,omitempty"`
	StepType           string          `json:"step_type,omitempty"`
	Group              string          `json:"group,omitempty"`
	Skip               bool            `json:"skip_expression_chain,omitempty"`
	DefaultParameters  json.RawMessage `json:"default_parameters,omitempty"`
	ResolvedParameters json.RawMessage `json:"resolved_parameters,omitempty"`
}

// Store implements nodestore.Store backed by Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ nodestore.Store = (*Store)(nil)

// New creates a store over an existing client. The caller owns the client.
func New(client redis.UniversalClient, opts Options) *Store {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Connect creates a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr string, opts Options) (*Store, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis %s: ping failed: %w", addr, err)
	}
	ctxlog.FromContext(ctx).Debug("redisstore: connected.", "address", addr)
	return New(client, opts), client, nil
}

func (s *Store) execKey(id string) string     { return s.prefix + "exec:" + id }
func (s *Store) childrenKey(id string) string { return s.prefix + "children:" + id }
func (s *Store) seqKey() string               { return s.prefix + "seq" }

// GetByID returns the execution with the given id.
func (s *Store) GetByID(ctx context.Context, id string) (node.Execution, error) {
	raw, err := s.client.Get(ctx, s.execKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return node.Execution{}, fmt.Errorf("%w: %q", nodestore.ErrNotFound, id)
		}
		return node.Execution{}, fmt.Errorf("get node execution %q: %w", id, err)
	}
	return decode(raw)
}

// Children returns the children of parentID along their sibling chain.
func (s *Store) Children(ctx context.Context, parentID string) ([]node.Execution, error) {
	ids, err := s.client.ZRange(ctx, s.childrenKey(parentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list children of %q: %w", parentID, err)
	}
	if len(ids) == 0 {
		return []node.Execution{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.execKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load children of %q: %w", parentID, err)
	}

	out := make([]node.Execution, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("child %q of %q is listed but has no record", ids[i], parentID)
		}
		e, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return nodestore.OrderSiblings(out), nil
}

// maxPutRetries bounds optimistic retries when a record changes under WATCH.
const maxPutRetries = 5

// Put writes executions and registers each under its parent. A re-put keeps
// the child's original position; a re-parented child moves to its new
// parent. Each execution is written atomically, the batch as a whole is not.
func (s *Store) Put(ctx context.Context, execs ...node.Execution) error {
	for _, e := range execs {
		raw, err := encode(e)
		if err != nil {
			return err
		}
		if err := s.put(ctx, e, raw); err != nil {
			return fmt.Errorf("put node execution %q: %w", e.ID, err)
		}
	}
	return nil
}

func (s *Store) put(ctx context.Context, e node.Execution, raw []byte) error {
	key := s.execKey(e.ID)
	write := func(tx *redis.Tx) error {
		oldParent, err := storedParent(ctx, tx, key)
		if err != nil {
			return err
		}
		var seq int64
		if !e.IsRoot() {
			// Outside MULTI; a failed transaction only leaves a gap in the counter.
			if seq, err = tx.Incr(ctx, s.seqKey()).Result(); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			if oldParent != "" && oldParent != e.ParentID {
				pipe.ZRem(ctx, s.childrenKey(oldParent), e.ID)
			}
			if !e.IsRoot() {
				pipe.ZAddNX(ctx, s.childrenKey(e.ParentID), redis.Z{Score: float64(seq), Member: e.ID})
			}
			return nil
		})
		return err
	}

	for range maxPutRetries {
		err := s.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		ctxlog.FromContext(ctx).Debug("redisstore: record changed during put, retrying.", "id", e.ID)
	}
	return fmt.Errorf("record kept changing after %d attempts: %w", maxPutRetries, redis.TxFailedErr)
}

// storedParent returns the parent id currently recorded under key, or "" when
// there is no record.
func storedParent(ctx context.Context, tx *redis.Tx, key string) (string, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var r struct {
		ParentID string `json:"parent_id"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", fmt.Errorf("decode stored record: %w", err)
	}
	return r.ParentID, nil
}

func encode(e node.Execution) ([]byte, error) {
	raw, err := json.Marshal(record{
		ID:                 e.ID,
		ParentID:           e.ParentID,
		PreviousID:         e.PreviousID,
		NextID:             e.NextID,
		Status:             e.Status.String(),
		Identifier:         e.Plan.Identifier,
		Name:               e.Plan.Name,
		StepType:           e.Plan.StepType,
		Group:              e.Plan.Group,
		Skip:               e.Plan.SkipExpressionChain,
		DefaultParameters:  e.Plan.DefaultParameters,
		ResolvedParameters: e.ResolvedParameters,
	})
	if err != nil {
		return nil, fmt.Errorf("encode node execution %q: %w", e.ID, err)
	}
	return raw, nil
}

func decode(raw []byte) (node.Execution, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return node.Execution{}, fmt.Errorf("decode node execution: %w", err)
	}
	status, err := node.ParseStatus(r.Status)
	if err != nil {
		return node.Execution{}, fmt.Errorf("execution %q: %w", r.ID, err)
	}
	return node.Execution{
		ID: r.ID,
		Plan: node.PlanNode{
			Identifier:          r.Identifier,
			Name:                r.Name,
			StepType:            r.StepType,
			Group:               r.Group,
			SkipExpressionChain: r.Skip,
			DefaultParameters:   r.DefaultParameters,
		},
		ParentID:           r.ParentID,
		PreviousID:         r.PreviousID,
		NextID:             r.NextID,
		Status:             status,
		ResolvedParameters: r.ResolvedParameters,
	}, nil
}
