package room

import "slices"

// DefaultColors is the identity palette. Its length fixes the room capacity:
// one color per seat, returned to the pool when the seat empties.
var DefaultColors = []string{"red", "blue", "yellow", "green"}

// ColorPool hands out identity colors in a deterministic order and takes
// them back on departure. A color is never outstanding twice.
type ColorPool struct {
	all       []string
	available []string
}

func NewColorPool(colors []string) *ColorPool {
	return &ColorPool{
		all:       slices.Clone(colors),
		available: slices.Clone(colors),
	}
}

// Take removes and returns the next available color.
func (p *ColorPool) Take() (string, error) {
	if len(p.available) == 0 {
		return "", ErrPoolExhausted
	}
	c := p.available[0]
	p.available = p.available[1:]
	return c, nil
}

// Release returns a previously taken color. Releasing a color that was never
// part of the pool, or one that is already back, means the caller has a bug.
func (p *ColorPool) Release(color string) error {
	if !slices.Contains(p.all, color) || slices.Contains(p.available, color) {
		return ErrColorNotOwned
	}
	p.available = append(p.available, color)
	return nil
}

// Available reports how many colors are currently unassigned.
func (p *ColorPool) Available() int {
	return len(p.available)
}
