// Command swarmgrid runs the cooperative multi-agent pathfinding
// simulator end to end: load a map, place agents, run the tick loop, and
// write metrics and trace output.
package main

import (
	"os"

	"swarmgrid/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
