package xiangqi

import "fmt"

// Destinations 返回 from 上棋子在当前盘面能到达的所有点。
// 不看轮到谁走，也不过滤“送将”。
func Destinations(b *Board, from Coordinate) ([]Coordinate, error) {
	pc := b.Get(from)
	if pc == Empty {
		return nil, fmt.Errorf("%w: %s", ErrEmptySquareSelected, from)
	}
	return appendDestinations(b, from, pc, make([]Coordinate, 0, 17)), nil
}

func appendDestinations(b *Board, from Coordinate, pc Piece, out []Coordinate) []Coordinate {
	side := pc.Side()
	switch pc.Kind() {
	case General:
		return generalDestinations(b, from, side, out)
	case Guard:
		return guardDestinations(b, from, side, out)
	case Elephant:
		return elephantDestinations(b, from, side, out)
	case Horse:
		return horseDestinations(b, from, side, out)
	case Chariot:
		return chariotDestinations(b, from, side, out)
	case Cannon:
		return cannonDestinations(b, from, side, out)
	case Soldier:
		return soldierDestinations(b, from, side, out)
	}
	return out
}

// Move 一步候选走法，调试和 API 输出用
type Move struct {
	From Coordinate
	To   Coordinate
}

// MovesForSide 生成 side 一方所有子的走法（伪合法）
func MovesForSide(b *Board, side Side) []Move {
	var moves []Move
	buf := make([]Coordinate, 0, 17)
	for i, pc := range b.Squares {
		if pc == Empty || pc.Side() != side {
			continue
		}
		from := Coordinate{idx: int8(i)}
		buf = appendDestinations(b, from, pc, buf[:0])
		for _, to := range buf {
			moves = append(moves, Move{From: from, To: to})
		}
	}
	return moves
}
