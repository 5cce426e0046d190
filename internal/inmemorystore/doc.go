// Package inmemorystore provides a thread-safe, in-memory implementation of
// the nodestore.Store interface. Executions live in an arena keyed by id and
// relate to each other through id references only. It backs tests, local
// runs of the CLI and YAML tree fixtures.
package inmemorystore
