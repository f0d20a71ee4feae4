package xiangqi

// 兵：只进不退，过河后可以左右平移
func soldierDestinations(b *Board, from Coordinate, side Side, out []Coordinate) []Coordinate {
	if to, ok := from.offset(forward(side), 0); ok && !b.Get(to).isAlly(side) {
		out = append(out, to)
	}
	if !crossedRiver(side, from) {
		return out
	}
	for _, next := range [2]stepFunc{Coordinate.Left, Coordinate.Right} {
		if to, ok := next(from); ok && !b.Get(to).isAlly(side) {
			out = append(out, to)
		}
	}
	return out
}
