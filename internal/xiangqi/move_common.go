package xiangqi

type stepFunc func(Coordinate) (Coordinate, bool)

var (
	orthogonalSteps = [4]stepFunc{Coordinate.Up, Coordinate.Down, Coordinate.Left, Coordinate.Right}
	diagonalSteps   = [4]stepFunc{Coordinate.UpLeft, Coordinate.UpRight, Coordinate.DownLeft, Coordinate.DownRight}
)

// 车：横竖随便走，遇子即停，对方子可吃
func chariotDestinations(b *Board, from Coordinate, side Side, out []Coordinate) []Coordinate {
	for _, next := range orthogonalSteps {
		for c, ok := next(from); ok; c, ok = next(c) {
			pc := b.Get(c)
			if pc == Empty {
				out = append(out, c)
				continue
			}
			if pc.isEnemy(side) {
				out = append(out, c)
			}
			break
		}
	}
	return out
}

// 炮：不吃子时同车，吃子要隔一个炮架
func cannonDestinations(b *Board, from Coordinate, side Side, out []Coordinate) []Coordinate {
	for _, next := range orthogonalSteps {
		screened := false
		for c, ok := next(from); ok; c, ok = next(c) {
			pc := b.Get(c)
			if !screened {
				// 走子阶段：直到第一个棋子
				if pc == Empty {
					out = append(out, c)
				} else {
					screened = true
				}
				continue
			}
			// 吃子阶段：越过炮架，第二个子若是对方则可吃；无论如何到此为止
			if pc == Empty {
				continue
			}
			if pc.isEnemy(side) {
				out = append(out, c)
			}
			break
		}
	}
	return out
}

// 相：田字，象眼有子则该方向不能走
func elephantDestinations(b *Board, from Coordinate, side Side, out []Coordinate) []Coordinate {
	for _, next := range diagonalSteps {
		eye, ok := next(from)
		if !ok || !b.isEmptyAt(eye) {
			continue
		}
		to, ok := next(eye)
		if !ok || b.Get(to).isAlly(side) {
			continue
		}
		out = append(out, to)
	}
	return out
}

// 士：九宫内斜走一格
func guardDestinations(b *Board, from Coordinate, side Side, out []Coordinate) []Coordinate {
	for _, next := range diagonalSteps {
		to, ok := next(from)
		if !ok || !to.InPalace(side) {
			continue
		}
		if b.Get(to).isAlly(side) {
			continue
		}
		out = append(out, to)
	}
	return out
}

// 将：九宫内上下左右一格，外加“飞将”：同列无子相隔时可直接吃对方将
func generalDestinations(b *Board, from Coordinate, side Side, out []Coordinate) []Coordinate {
	for _, next := range orthogonalSteps {
		to, ok := next(from)
		if !ok || !to.InPalace(side) {
			continue
		}
		if b.Get(to).isAlly(side) {
			continue
		}
		out = append(out, to)
	}

	// 朝对方底线方向扫
	ahead := Coordinate.Up
	if side == Black {
		ahead = Coordinate.Down
	}
	enemyGeneral := MakePiece(side.Opponent(), General)
	for c, ok := ahead(from); ok; c, ok = ahead(c) {
		pc := b.Get(c)
		if pc == Empty {
			continue
		}
		if pc == enemyGeneral && !containsCoordinate(out, c) {
			out = append(out, c)
		}
		break
	}
	return out
}

func containsCoordinate(cs []Coordinate, c Coordinate) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}
