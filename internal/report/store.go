// Package report persists pipeline runs as JSON snapshots and answers
// queries about the nodes they contain.
package report

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores that do not hold the requested run.
var ErrNotFound = errors.New("run not found")

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult is the snapshot of one pipeline run.
type RunResult struct {
	ID       string    `json:"id"`
	Manifest string    `json:"manifest,omitempty"`
	Name     string    `json:"name,omitempty"`
	Order    string    `json:"order"`
	Rollback string    `json:"rollback"`
	Outcome  string    `json:"outcome"`
	Started  time.Time `json:"started"`
	Elapsed  float64   `json:"elapsed"` // seconds
	Root     *Node     `json:"root"`
}

// Node is the snapshot of one result node.
type Node struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	Depth         int     `json:"depth"`
	Outcome       string  `json:"outcome"`
	Elapsed       float64 `json:"elapsed"` // seconds
	Wall          float64 `json:"wall"`    // seconds from enter to exit
	Return        string  `json:"return,omitempty"`
	Error         *Error  `json:"error,omitempty"`
	RolledBack    bool    `json:"rolled_back,omitempty"`
	RollbackError string  `json:"rollback_error,omitempty"`
	Children      []*Node `json:"children,omitempty"`
}

// Error describes the failure recorded on a node.
type Error struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Leaf reports whether the node has no children.
func (n *Node) Leaf() bool { return len(n.Children) == 0 }
