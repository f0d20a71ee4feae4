package xiangqi

// 马 8 种“日”字：终点 + 马腿
var horseLegMoves = [8]struct {
	Dr, Dc int // 终点
	Lr, Lc int // 马腿
}{
	{+2, -1, +1, 0},
	{+2, +1, +1, 0},
	{-2, -1, -1, 0},
	{-2, +1, -1, 0},
	{-1, -2, 0, -1},
	{+1, -2, 0, -1},
	{-1, +2, 0, +1},
	{+1, +2, 0, +1},
}

func horseDestinations(b *Board, from Coordinate, side Side, out []Coordinate) []Coordinate {
	for _, m := range horseLegMoves {
		to, ok := from.offset(m.Dr, m.Dc)
		if !ok {
			continue
		}
		leg, _ := from.offset(m.Lr, m.Lc) // 终点在界内，马腿必在界内
		if !b.isEmptyAt(leg) {
			continue // 憋马腿
		}
		if b.Get(to).isAlly(side) {
			continue
		}
		out = append(out, to)
	}
	return out
}
