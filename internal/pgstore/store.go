// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package pgstore implements nodestore.Store on PostgreSQL through pgx.
//
// Executions live in one table, node_executions, with the plan node fields
// denormalized onto each row. Parameters are JSONB and travel as raw JSON.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/node"
	"github.com/vk/plangraph/internal/nodestore"
)

// Schema creates the table and index the store reads from.
const Schema = `
CREATE TABLE IF NOT EXISTS node_executions (
	id                    TEXT PRIMARY KEY,
	parent_id             TEXT,
	previous_id           TEXT,
	next_id               TEXT,
	status                TEXT NOT NULL,
	identifier            TEXT NOT NULL,
	name                  TEXT NOT NULL DEFAULT '',
	step_type             TEXT NOT NULL DEFAULT '',
	plan_group            TEXT,
	skip_expression_chain BOOLEAN NOT NULL DEFAULT FALSE,
	default_parameters    JSONB,
	resolved_parameters   JSONB,
	seq                   BIGSERIAL
);
CREATE INDEX IF NOT EXISTS node_executions_parent_idx ON node_executions (parent_id, seq);`

const columns = `id, parent_id, previous_id, next_id, status,
	identifier, name, step_type, plan_group, skip_expression_chain,
	default_parameters, resolved_parameters`

const (
	getByIDQuery  = `SELECT ` + columns + ` FROM node_executions WHERE id = $1`
	childrenQuery = `SELECT ` + columns + ` FROM node_executions WHERE parent_id = $1 ORDER BY seq`
	upsertQuery   = `
	INSERT INTO node_executions (` + columns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (id) DO UPDATE SET
		parent_id = EXCLUDED.parent_id,
		previous_id = EXCLUDED.previous_id,
		next_id = EXCLUDED.next_id,
		status = EXCLUDED.status,
		identifier = EXCLUDED.identifier,
		name = EXCLUDED.name,
		step_type = EXCLUDED.step_type,
		plan_group = EXCLUDED.plan_group,
		skip_expression_chain = EXCLUDED.skip_expression_chain,
		default_parameters = EXCLUDED.default_parameters,
		resolved_parameters = EXCLUDED.resolved_parameters`
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements nodestore.Store backed by PostgreSQL.
type Store struct {
	db DB
}

var _ nodestore.Store = (*Store)(nil)

// New wraps an open connection pool or any other DB.
func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a pool for dsn and checks it with a ping. The caller owns the
// returned pool and closes it.
func Connect(ctx context.Context, dsn string) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping pg: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("pgstore: connected.", "host", pool.Config().ConnConfig.Host)
	return New(pool), pool, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate node_executions: %w", err)
	}
	return nil
}

// GetByID returns the execution with the given id.
func (s *Store) GetByID(ctx context.Context, id string) (node.Execution, error) {
	e, err := scanExecution(s.db.QueryRow(ctx, getByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return node.Execution{}, fmt.Errorf("%w: %q", nodestore.ErrNotFound, id)
		}
		return node.Execution{}, fmt.Errorf("get node execution %q: %w", id, err)
	}
	return e, nil
}

// Children returns the children of parentID along their sibling chain.
func (s *Store) Children(ctx context.Context, parentID string) ([]node.Execution, error) {
	rows, err := s.db.Query(ctx, childrenQuery, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children of %q: %w", parentID, err)
	}
	defer rows.Close()

	out := []node.Execution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child of %q: %w", parentID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list children of %q: %w", parentID, err)
	}
	return nodestore.OrderSiblings(out), nil
}

// Put upserts executions. It is the write path used to seed a run's tree.
func (s *Store) Put(ctx context.Context, execs ...node.Execution) error {
	for _, e := range execs {
		_, err := s.db.Exec(ctx, upsertQuery,
			e.ID, nullString(e.ParentID), nullString(e.PreviousID), nullString(e.NextID), e.Status.String(),
			e.Plan.Identifier, e.Plan.Name, e.Plan.StepType, nullString(e.Plan.Group), e.Plan.SkipExpressionChain,
			nullJSON(e.Plan.DefaultParameters), nullJSON(e.ResolvedParameters))
		if err != nil {
			return fmt.Errorf("upsert node execution %q: %w", e.ID, err)
		}
	}
	return nil
}

func scanExecution(row pgx.Row) (node.Execution, error) {
	var (
		e                          node.Execution
		parentID, prevID, nextID   *string
		group                      *string
		status                     string
		defaultParams, resolvedPrm []byte
	)
	err := row.Scan(&e.ID, &parentID, &prevID, &nextID, &status,
		&e.Plan.Identifier, &e.Plan.Name, &e.Plan.StepType, &group, &e.Plan.SkipExpressionChain,
		&defaultParams, &resolvedPrm)
	if err != nil {
		return node.Execution{}, err
	}

	e.ParentID = deref(parentID)
	e.PreviousID = deref(prevID)
	e.NextID = deref(nextID)
	e.Plan.Group = deref(group)
	if e.Status, err = node.ParseStatus(status); err != nil {
		return node.Execution{}, fmt.Errorf("execution %q: %w", e.ID, err)
	}
	if len(defaultParams) > 0 {
		e.Plan.DefaultParameters = json.RawMessage(defaultParams)
	}
	if len(resolvedPrm) > 0 {
		e.ResolvedParameters = json.RawMessage(resolvedPrm)
	}
	return e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
