package xiangqi

// Attacked 判断 c 这个点是否被 bySide 这一方攻击。
// 采用走法模拟：只要对方任何一个棋子能走到这个位置，就说明该位置被攻击。
func Attacked(b *Board, c Coordinate, bySide Side) bool {
	buf := make([]Coordinate, 0, 17)
	for i, pc := range b.Squares {
		if pc == Empty || pc.Side() != bySide {
			continue
		}
		buf = appendDestinations(b, Coordinate{idx: int8(i)}, pc, buf[:0])
		if containsCoordinate(buf, c) {
			return true
		}
	}
	return false
}

// InCheck 判断 side 这一方的将是否被将军。只作提示，不参与走法过滤。
func InCheck(b *Board, side Side) bool {
	g, ok := b.General(side)
	if !ok {
		return false
	}
	return Attacked(b, g, side.Opponent())
}
