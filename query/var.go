// Package query defines the parsed query AST shared by the FQL and SPARQL
// surfaces: variables, patterns, solutions, and the function/aggregate
// vocabulary the where-executor and postprocess stages consume. It sits
// above index (it depends on index.Pattern for leaf triple patterns) and
// below planner/executor/postprocess.
package query

import "sync"

// VarID is a parse-time-interned handle for a query variable, replacing
// the teacher's bare Symbol string wherever a dense, comparable key is
// needed (tuple column indexing, join keys). Variables are interned once
// per parsed query via a VarTable so two occurrences of "?x" share one id.
type VarID int

// VarTable interns variable names to VarIDs for one parsed query.
type VarTable struct {
	mu    sync.Mutex
	byID  []string
	index map[string]VarID
}

// NewVarTable creates an empty variable table.
func NewVarTable() *VarTable {
	return &VarTable{index: make(map[string]VarID)}
}

// Intern returns the VarID for name, minting a new one if this is the
// first occurrence.
func (t *VarTable) Intern(name string) VarID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.index[name]; ok {
		return id
	}
	id := VarID(len(t.byID))
	t.byID = append(t.byID, name)
	t.index[name] = id
	return id
}

// Name recovers the original variable name for an interned id.
func (t *VarTable) Name(id VarID) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) < 0 || int(id) >= len(t.byID) {
		return ""
	}
	return t.byID[id]
}

// Len returns the number of distinct variables interned so far.
func (t *VarTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
