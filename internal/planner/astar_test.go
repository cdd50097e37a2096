package planner

import (
	"testing"

	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
	"swarmgrid/internal/reservation"
)

func gridFromRows(rows []string) *grid.Grid {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	mask := make([]bool, width*height)
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				mask[y*width+x] = true
			}
		}
	}
	return grid.New(width, height, mask)
}

func TestPlanSoundness(t *testing.T) {
	g := gridFromRows([]string{"...", "...", "..."})
	table := reservation.New()
	agent := ids.NewAgentID()

	path := Plan(g, table, agent, grid.Cell{0, 0}, grid.Cell{2, 2}, 0)
	if len(path) == 0 {
		t.Fatalf("expected non-empty path")
	}
	if path[0] != (grid.Cell{0, 0}) {
		t.Fatalf("path must start at start cell, got %+v", path[0])
	}
	if path[len(path)-1] != (grid.Cell{2, 2}) {
		t.Fatalf("path must end at goal cell, got %+v", path[len(path)-1])
	}
	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]
		if prev == cur {
			continue
		}
		if prev.Manhattan(cur) != 1 {
			t.Fatalf("non-adjacent step at %d: %+v -> %+v", i, prev, cur)
		}
	}
}

func TestPlanEmptyWhenStartOrGoalBlocked(t *testing.T) {
	g := gridFromRows([]string{".#", "##"})
	table := reservation.New()
	agent := ids.NewAgentID()

	if path := Plan(g, table, agent, grid.Cell{1, 0}, grid.Cell{0, 0}, 0); path != nil {
		t.Fatalf("expected nil path when start is an obstacle, got %v", path)
	}
}

func TestPlanAvoidsVertexConflict(t *testing.T) {
	g := gridFromRows([]string{"....."})
	table := reservation.New()
	blocker := ids.NewAgentID()
	self := ids.NewAgentID()

	// Blocker sits at (2,0) for all of ticks 0..5.
	for tick := uint64(0); tick <= 5; tick++ {
		table.Insert(reservation.KeyAt(grid.Cell{2, 0}, tick), blocker)
	}

	path := Plan(g, table, self, grid.Cell{0, 0}, grid.Cell{4, 0}, 0)
	if len(path) == 0 {
		t.Fatalf("expected a path that waits out the stationary blocker")
	}
	for i, c := range path {
		if c == (grid.Cell{2, 0}) && uint64(i) <= 5 {
			t.Fatalf("path[%d] occupies the blocked cell at the same tick", i)
		}
	}
}

func TestPlanAvoidsSwapConflict(t *testing.T) {
	g := gridFromRows([]string{".."})
	table := reservation.New()
	other := ids.NewAgentID()
	self := ids.NewAgentID()

	// other is at (1,0) at tick 0 and moves to (0,0) at tick 1: a head-on
	// swap with any agent going (0,0)->(1,0) in the same window.
	table.Insert(reservation.KeyAt(grid.Cell{1, 0}, 0), other)
	table.Insert(reservation.KeyAt(grid.Cell{0, 0}, 1), other)

	path := Plan(g, table, self, grid.Cell{0, 0}, grid.Cell{1, 0}, 0)
	for i := 1; i < len(path); i++ {
		if path[i-1] == (grid.Cell{0, 0}) && path[i] == (grid.Cell{1, 0}) {
			t.Fatalf("planned path performs a swap with other's reservations")
		}
	}
}

func TestCommitThenEraseClearsAllEntries(t *testing.T) {
	table := reservation.New()
	agent := ids.NewAgentID()
	path := []grid.Cell{{0, 0}, {1, 0}, {2, 0}}

	Commit(table, agent, path, 0)
	for i, c := range path {
		if !table.OwnedBy(reservation.KeyAt(c, uint64(i)), agent) {
			t.Fatalf("expected commit to reserve %+v at tick %d", c, i)
		}
	}
	goalKey := reservation.KeyAt(path[len(path)-1], uint64(len(path)))
	if !table.OwnedBy(goalKey, agent) {
		t.Fatalf("expected goal-window reservation immediately following path")
	}

	table.Erase(agent)
	for i, c := range path {
		if table.OwnedBy(reservation.KeyAt(c, uint64(i)), agent) {
			t.Fatalf("expected erase to remove path reservation %d", i)
		}
	}
}

func TestPlanTerminatesWithinHorizon(t *testing.T) {
	g := gridFromRows([]string{"#.#", "###", "#.#"})
	table := reservation.New()
	agent := ids.NewAgentID()

	// Goal in a fully sealed pocket: unreachable, must return empty
	// rather than loop forever.
	path := Plan(g, table, agent, grid.Cell{1, 0}, grid.Cell{1, 2}, 0)
	if path == nil {
		return
	}
	if path[len(path)-1] != (grid.Cell{1, 2}) {
		t.Fatalf("unexpected non-terminating path: %v", path)
	}
}
