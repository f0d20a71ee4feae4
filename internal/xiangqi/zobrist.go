package xiangqi

import "sync"

const zobristKinds = 8 // PieceKind 范围 [1..7]，0 保留空位不用

var (
	zobristOnce sync.Once

	zobristPieces [2][zobristKinds][NumSquares]uint64
)

func initZobrist() {
	zobristOnce.Do(func() {
		seed := uint64(0x9E3779B97F4A7C15)
		next := func() uint64 {
			seed += 0x9E3779B97F4A7C15
			z := seed
			z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
			z = (z ^ (z >> 27)) * 0x94D049BB133111EB
			return z ^ (z >> 31)
		}

		for side := 0; side < 2; side++ {
			for k := 1; k < zobristKinds; k++ {
				for sq := 0; sq < NumSquares; sq++ {
					zobristPieces[side][k][sq] = next()
				}
			}
		}
	})
}

func pieceHashKey(pc Piece, sq int) uint64 {
	if pc == Empty || sq < 0 || sq >= NumSquares {
		return 0
	}
	side := pc.Side()
	if side != Red && side != Black {
		return 0
	}
	k := int(pc.Kind())
	if k <= 0 || k >= zobristKinds {
		return 0
	}
	return zobristPieces[side][k][sq]
}

// Hash 全量计算盘面的 Zobrist 哈希，不含走子方。
// 两端各自算一遍即可核对联机棋盘是否一致。
func (b *Board) Hash() uint64 {
	initZobrist()

	var h uint64
	for sq, pc := range b.Squares {
		if pc == Empty {
			continue
		}
		h ^= pieceHashKey(pc, sq)
	}
	return h
}

// stepHash 增量更新：移走 from 的子、移除被吃子、放到 to
func stepHash(h uint64, moved Piece, s Step) uint64 {
	initZobrist()

	h ^= pieceHashKey(moved, s.From.Index())
	h ^= pieceHashKey(s.Captured, s.To.Index())
	h ^= pieceHashKey(moved, s.To.Index())
	return h
}
