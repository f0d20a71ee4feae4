package xiangqi

import (
	"strings"

	"golang.org/x/text/width"
)

var glyphs = map[PieceKind][2]rune{
	General:  {'帅', '将'},
	Guard:    {'仕', '士'},
	Elephant: {'相', '象'},
	Horse:    {'马', '馬'},
	Chariot:  {'车', '車'},
	Cannon:   {'炮', '砲'},
	Soldier:  {'兵', '卒'},
}

// Glyph 棋子的汉字名，红黑用字不同
func (p Piece) Glyph() rune {
	g, ok := glyphs[p.Kind()]
	if !ok {
		return '·'
	}
	if p.Side() == Black {
		return g[1]
	}
	return g[0]
}

// Glyphs 汉字棋盘，黑方在上，带行列号。空点和编号转成全角，终端里能对齐。
func (b *Board) Glyphs() string {
	var sb strings.Builder
	for row := Rows - 1; row >= 0; row-- {
		sb.WriteString(width.Widen.String(string(rune('0' + row))))
		for col := 0; col < Cols; col++ {
			pc := b.Squares[row*Cols+col]
			if pc == Empty {
				sb.WriteString(width.Widen.String("+"))
				continue
			}
			sb.WriteRune(pc.Glyph())
		}
		sb.WriteByte('\n')
		if row == RiverRow {
			sb.WriteString(width.Widen.String(" " + strings.Repeat("~", Cols)))
			sb.WriteByte('\n')
		}
	}
	sb.WriteString(width.Widen.String(" 012345678"))
	return sb.String()
}
