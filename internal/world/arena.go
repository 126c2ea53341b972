package world

// Arena is the square play area centered on the origin.
type Arena struct {
	HalfExtent float64 `json:"half_extent"` // Agents and player stay within ±HalfExtent on both axes
	SpawnRange float64 `json:"spawn_range"` // Agents spawn within ±SpawnRange
}

// DefaultArena matches the original city block: citizens spawn in a
// ±22 square, the player may roam further out.
func DefaultArena() Arena {
	return Arena{HalfExtent: 60, SpawnRange: 22}
}

// Contains reports whether p lies inside the arena.
func (a Arena) Contains(p Vec2) bool {
	return p.X >= -a.HalfExtent && p.X <= a.HalfExtent &&
		p.Y >= -a.HalfExtent && p.Y <= a.HalfExtent
}

// ClampPoint pulls p back inside the arena bounds.
func (a Arena) ClampPoint(p Vec2) Vec2 {
	return Vec2{
		X: Clamp(p.X, -a.HalfExtent, a.HalfExtent),
		Y: Clamp(p.Y, -a.HalfExtent, a.HalfExtent),
	}
}

// ContainCircle keeps p within radius r of center. Points already inside are
// returned unchanged.
func ContainCircle(p, center Vec2, r float64) Vec2 {
	d := p.Sub(center)
	if d.LenSq() <= r*r {
		return p
	}
	return center.Add(d.Norm().Scale(r))
}
