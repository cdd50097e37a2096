package grid

import "testing"

func obstacleMask(rows []string) (int, int, []bool) {
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
	return width, height, mask
}

func TestGridIsFree(t *testing.T) {
	width, height, mask := obstacleMask([]string{
		"...",
		".#.",
		"...",
	})
	g := New(width, height, mask)

	if !g.IsFree(Cell{0, 0}) {
		t.Fatalf("expected (0,0) free")
	}
	if g.IsFree(Cell{1, 1}) {
		t.Fatalf("expected (1,1) obstacle")
	}
	if g.IsFree(Cell{-1, 0}) {
		t.Fatalf("expected out-of-bounds cell to be non-free")
	}
}

func TestGridNeighbors4Order(t *testing.T) {
	width, height, mask := obstacleMask([]string{
		"...",
		"...",
		"...",
	})
	g := New(width, height, mask)

	got := g.Neighbors4(Cell{1, 1})
	want := []Cell{{1, 0}, {2, 1}, {1, 2}, {0, 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d neighbors, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighbor order mismatch at %d: want %+v got %+v", i, want[i], got[i])
		}
	}
}

func TestGridReachableBottleneck(t *testing.T) {
	width, height, mask := obstacleMask([]string{
		".....",
		"..#..",
		"..#..",
		"..#..",
		".....",
	})
	g := New(width, height, mask)
	if !g.Reachable(Cell{0, 2}, Cell{4, 2}) {
		t.Fatalf("expected corridor to remain reachable around the wall")
	}
}

func TestGridUnreachable(t *testing.T) {
	width, height, mask := obstacleMask([]string{
		"..#..",
		"..#..",
		"#####",
		"..#..",
		"..#..",
	})
	g := New(width, height, mask)
	if g.Reachable(Cell{0, 0}, Cell{4, 4}) {
		t.Fatalf("expected fully-partitioned grid to be unreachable")
	}
}
