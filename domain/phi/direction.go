package phi

// Direction parametrizes cause and effect computations. If the direction
// is Cause, the purview is at t-1 and the mechanism at t; if Effect, the
// mechanism is at t and the purview at t+1.
type Direction int

const (
	Cause Direction = iota
	Effect
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Cause:
		return "CAUSE"
	case Effect:
		return "EFFECT"
	}
	return "UNKNOWN"
}

// Flip returns the other direction
func (d Direction) Flip() Direction {
	if d == Cause {
		return Effect
	}
	return Cause
}

// Directions returns both causal directions in canonical order
func Directions() []Direction {
	return []Direction{Cause, Effect}
}
