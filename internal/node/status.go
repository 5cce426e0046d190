// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package node

import (
	"fmt"
	"strings"
)

// Status is the execution status of a node.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusErrored   Status = "errored"
	StatusAborted   Status = "aborted"
	StatusExpired   Status = "expired"
	StatusSkipped   Status = "skipped"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusSucceeded,
	StatusFailed,
	StatusErrored,
	StatusAborted,
	StatusExpired,
	StatusSkipped,
}

// ParseStatus converts a stored status string, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range allStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// signalRank orders the terminal statuses that carry a signal for rollups.
// Statuses missing from the map carry none.
var signalRank = map[Status]int{
	StatusSucceeded: 1,
	StatusAborted:   2,
	StatusExpired:   3,
	StatusFailed:    4,
	StatusErrored:   5,
}

// Rank returns the rollup rank of the status and whether it is a
// terminal-with-signal status at all.
func (s Status) Rank() (int, bool) {
	r, ok := signalRank[s]
	return r, ok
}

// IsTerminal reports whether the status will not change anymore.
func (s Status) IsTerminal() bool {
	if _, ok := signalRank[s]; ok {
		return true
	}
	return s == StatusSkipped
}

func (s Status) String() string {
	return string(s)
}
