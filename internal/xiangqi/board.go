package xiangqi

import (
	"fmt"
	"strings"
	"unicode"
)

// Board 90 格棋盘，只存数据，不懂规则
type Board struct {
	Squares [NumSquares]Piece
}

func (b *Board) Get(c Coordinate) Piece      { return b.Squares[c.idx] }
func (b *Board) Set(c Coordinate, p Piece)   { b.Squares[c.idx] = p }
func (b *Board) isEmptyAt(c Coordinate) bool { return b.Squares[c.idx] == Empty }

// General 找 side 一方的帅/将
func (b *Board) General(side Side) (Coordinate, bool) {
	want := MakePiece(side, General)
	for i, pc := range b.Squares {
		if pc == want {
			return Coordinate{idx: int8(i)}, true
		}
	}
	return Coordinate{}, false
}

var letterToKind = map[rune]PieceKind{
	'k': General,
	'a': Guard,
	'b': Elephant,
	'n': Horse,
	'r': Chariot,
	'c': Cannon,
	'p': Soldier,
}

var kindToLetter = func() map[PieceKind]rune {
	m := make(map[PieceKind]rune, len(letterToKind))
	for r, k := range letterToKind {
		m[k] = r
	}
	return m
}()

func pieceToChar(p Piece) rune {
	if p == Empty {
		return '.'
	}
	ch, ok := kindToLetter[p.Kind()]
	if !ok {
		return '?'
	}
	if p.Side() == Red {
		return unicode.ToUpper(ch)
	}
	return ch
}

// 第一行是第 9 行（黑方底线），最后一行是第 0 行（红方底线）；大写红，小写黑
const openingLayout = `rnbakabnr
.........
.c.....c.
p.p.p.p.p
.........
.........
P.P.P.P.P
.C.....C.
.........
RNBAKABNR`

// ParseBoard 解析 String 输出的文字棋盘，空行和行首尾空白忽略。
// 每方至多一个将帅。
func ParseBoard(layout string) (Board, error) {
	var (
		b        Board
		generals [2]int
	)
	lines := make([]string, 0, Rows)
	for _, line := range strings.Split(layout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) != Rows {
		return b, fmt.Errorf("layout has %d rows, want %d", len(lines), Rows)
	}
	for i, line := range lines {
		row := Rows - 1 - i
		if len(line) != Cols {
			return b, fmt.Errorf("layout row %d has %d columns, want %d", row, len(line), Cols)
		}
		for col, ch := range line {
			if ch == '.' {
				continue
			}
			kind, ok := letterToKind[unicode.ToLower(ch)]
			if !ok {
				return b, fmt.Errorf("unknown piece letter %q at row %d col %d", ch, row, col)
			}
			side := Black
			if unicode.IsUpper(ch) {
				side = Red
			}
			if kind == General {
				if generals[side]++; generals[side] > 1 {
					return Board{}, fmt.Errorf("%s has more than one general (row %d col %d)", side, row, col)
				}
			}
			b.Squares[row*Cols+col] = MakePiece(side, kind)
		}
	}
	return b, nil
}

var openingBoard = func() Board {
	b, err := ParseBoard(openingLayout)
	if err != nil {
		panic("opening layout: " + err.Error())
	}
	return b
}()

// NewBoard 开局摆法，32 个子
func NewBoard() Board { return openingBoard }

func EmptyBoard() Board { return Board{} }

// String 与 openingLayout 同样的文字格式，黑方在上
func (b *Board) String() string {
	var sb strings.Builder
	for row := Rows - 1; row >= 0; row-- {
		for col := 0; col < Cols; col++ {
			sb.WriteRune(pieceToChar(b.Squares[row*Cols+col]))
		}
		if row > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
