// Package reservation implements the bi-indexed space-time reservation
// table shared by the planner and the per-agent coordination controllers.
package reservation

import (
	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
)

// Key identifies a single (cell, tick) slot in space-time.
type Key struct {
	X, Y int
	T    uint64
}

// Entry binds a reservation key to the agent that holds it.
type Entry struct {
	Key   Key
	Agent ids.AgentID
}

// Table is a collection of reservation entries with two access patterns:
// O(1) expected lookup by key, and bulk erase of every entry an agent
// owns. At most one entry may exist per key; inserting into an
// already-occupied key fails and leaves the existing entry untouched.
type Table struct {
	byKey   map[Key]ids.AgentID
	byAgent map[ids.AgentID]map[Key]struct{}
}

// New constructs an empty reservation table.
func New() *Table {
	return &Table{
		byKey:   make(map[Key]ids.AgentID),
		byAgent: make(map[ids.AgentID]map[Key]struct{}),
	}
}

// KeyAt builds the reservation key for a cell at a given tick.
func KeyAt(c grid.Cell, tick uint64) Key {
	return Key{X: c.X, Y: c.Y, T: tick}
}

// Cell extracts the (x, y) portion of a key as a grid.Cell.
func (k Key) Cell() grid.Cell {
	return grid.Cell{X: k.X, Y: k.Y}
}

// Insert claims key for agent. It fails (returns false) and leaves the
// table unchanged if the key is already owned by a different agent; it is
// idempotent (returns true, no-op) if the same agent already owns it.
func (t *Table) Insert(key Key, agent ids.AgentID) bool {
	if owner, exists := t.byKey[key]; exists {
		return owner == agent
	}
	t.byKey[key] = agent
	owned, ok := t.byAgent[agent]
	if !ok {
		owned = make(map[Key]struct{})
		t.byAgent[agent] = owned
	}
	owned[key] = struct{}{}
	return true
}

// Lookup returns the owner of key, if any.
func (t *Table) Lookup(key Key) (ids.AgentID, bool) {
	owner, ok := t.byKey[key]
	return owner, ok
}

// OwnedBy reports whether agent owns key.
func (t *Table) OwnedBy(key Key, agent ids.AgentID) bool {
	owner, ok := t.byKey[key]
	return ok && owner == agent
}

// Erase removes every entry owned by agent. Cost is proportional to the
// number of entries that agent holds.
func (t *Table) Erase(agent ids.AgentID) {
	owned, ok := t.byAgent[agent]
	if !ok {
		return
	}
	for key := range owned {
		if owner, exists := t.byKey[key]; exists && owner == agent {
			delete(t.byKey, key)
		}
	}
	delete(t.byAgent, agent)
}

// Clear empties the table.
func (t *Table) Clear() {
	t.byKey = make(map[Key]ids.AgentID)
	t.byAgent = make(map[ids.AgentID]map[Key]struct{})
}

// Len returns the number of entries currently held.
func (t *Table) Len() int {
	return len(t.byKey)
}

// Entries returns every entry in the table. Iteration order is
// unspecified; callers that need a stable order should sort the result.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.byKey))
	for key, agent := range t.byKey {
		out = append(out, Entry{Key: key, Agent: agent})
	}
	return out
}

// Clone returns a deep copy of the table, used when broadcasting a
// STATE_SYNC snapshot.
func (t *Table) Clone() *Table {
	cloned := New()
	for key, agent := range t.byKey {
		cloned.Insert(key, agent)
	}
	return cloned
}

// Merge folds src's entries into t under the given conflict-resolution
// rule. For every key present in src but absent in t, the entry is
// adopted directly. For a key present in both under different owners,
// resolve is consulted to decide whether the incoming (src) owner should
// replace the existing one.
func (t *Table) Merge(src *Table, resolve func(existing, incoming ids.AgentID) bool) {
	if src == nil {
		return
	}
	for key, incoming := range src.byKey {
		existing, exists := t.byKey[key]
		if !exists {
			t.adopt(key, incoming)
			continue
		}
		if existing == incoming {
			continue
		}
		if resolve != nil && resolve(existing, incoming) {
			t.removeKeyFromAgent(key, existing)
			t.adopt(key, incoming)
		}
	}
}

func (t *Table) adopt(key Key, agent ids.AgentID) {
	t.byKey[key] = agent
	owned, ok := t.byAgent[agent]
	if !ok {
		owned = make(map[Key]struct{})
		t.byAgent[agent] = owned
	}
	owned[key] = struct{}{}
}

func (t *Table) removeKeyFromAgent(key Key, agent ids.AgentID) {
	if owned, ok := t.byAgent[agent]; ok {
		delete(owned, key)
		if len(owned) == 0 {
			delete(t.byAgent, agent)
		}
	}
}
