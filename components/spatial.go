package components

// Position is an agent's cell on the toroidal grid.
type Position struct {
	X, Y int
}
