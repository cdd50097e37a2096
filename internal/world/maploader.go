package world

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"strings"

	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
	"swarmgrid/internal/swarmerr"
)

// ErrInvalidMap is the sentinel every map-validation failure wraps, so
// callers can distinguish load failures from other errors with
// errors.Is. It is an alias of the shared InputInvalid classification.
var ErrInvalidMap = swarmerr.InputInvalid

// ParseGrid reads a text grid from lines: '.' denotes a free cell, '#' an
// obstacle. Blank lines and lines beginning with '/' are ignored. Every
// non-empty line must have equal width, and no other characters are
// permitted.
func ParseGrid(lines []string) (*grid.Grid, error) {
	rows := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "/") {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty map", ErrInvalidMap)
	}

	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: zero-width map", ErrInvalidMap)
	}
	mask := make([]bool, width*len(rows))
	freeCells := 0
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, expected %d", ErrInvalidMap, y, len(row), width)
		}
		for x, ch := range row {
			switch ch {
			case '.':
				freeCells++
			case '#':
				mask[y*width+x] = true
			default:
				return nil, fmt.Errorf("%w: invalid character %q at row %d col %d", ErrInvalidMap, ch, y, x)
			}
		}
	}
	if freeCells < 2 {
		return nil, fmt.Errorf("%w: need at least 2 free cells, found %d", ErrInvalidMap, freeCells)
	}
	return grid.New(width, len(rows), mask), nil
}

// deriveSeed folds a numeric root seed and a label into a fresh int64
// suitable for seeding an independent RNG stream, so that agent placement
// is deterministic for a given seed but does not disturb other RNG
// consumers seeded from the same root.
func deriveSeed(rootSeed uint64, label string) int64 {
	hasher := fnv.New64a()
	fmt.Fprintf(hasher, "%d", rootSeed)
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// PlaceAgents chooses nAgents distinct (start, goal) free-cell pairs, each
// pair connected by a 4-adjacency path, deterministically for the given
// seed. It returns an error if it cannot find enough disjoint, reachable
// pairs.
func PlaceAgents(g *grid.Grid, nAgents int, seed uint64) ([]*AgentState, error) {
	if nAgents <= 0 {
		return nil, fmt.Errorf("%w: agent count must be positive, got %d", ErrInvalidMap, nAgents)
	}
	freeCells := g.FreeCells()
	if len(freeCells) < nAgents*2 {
		return nil, fmt.Errorf("%w: need %d free cells for %d agents, have %d", ErrInvalidMap, nAgents*2, nAgents, len(freeCells))
	}

	rng := rand.New(rand.NewSource(deriveSeed(seed, "agents")))
	shuffled := make([]grid.Cell, len(freeCells))
	copy(shuffled, freeCells)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	used := make(map[grid.Cell]struct{})
	agents := make([]*AgentState, 0, nAgents)
	for i := 0; i < len(shuffled) && len(agents) < nAgents; i++ {
		start := shuffled[i]
		if _, taken := used[start]; taken {
			continue
		}
		for j := i + 1; j < len(shuffled); j++ {
			goal := shuffled[j]
			if _, taken := used[goal]; taken {
				continue
			}
			if !g.Reachable(start, goal) {
				continue
			}
			used[start] = struct{}{}
			used[goal] = struct{}{}
			agents = append(agents, NewAgentState(ids.NewSeededAgentID(rng), start, goal))
			break
		}
	}
	if len(agents) < nAgents {
		return nil, fmt.Errorf("%w: could only place %d of %d agents with reachable goals", ErrInvalidMap, len(agents), nAgents)
	}
	return agents, nil
}

// Load reads a map file, validates it, and places nAgents agents at
// distinct, mutually reachable free-cell pairs, deterministically for the
// given seed. It returns nil and a non-nil error on any validation
// failure, matching the "returns nothing" contract of MapLoader.load.
func Load(path string, nAgents int, seed uint64) (*World, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	g, err := ParseGrid(lines)
	if err != nil {
		return nil, err
	}

	agents, err := PlaceAgents(g, nAgents, seed)
	if err != nil {
		return nil, err
	}

	return New(g, agents), nil
}
