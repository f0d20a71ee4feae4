package xiangqi

import "fmt"

const (
	Rows       = 10
	Cols       = 9
	NumSquares = Rows * Cols

	// 红方半场 0..4 行，黑方半场 5..9 行
	RiverRow = 5

	palaceColMin = 3
	palaceColMax = 5
)

// Coordinate 棋盘上的一个点，内部只保存线性下标 row*Cols+col。
// 只能通过 NewCoordinate / CoordinateFromIndex / 邻点函数得到，天然在界内。
type Coordinate struct {
	idx int8
}

func NewCoordinate(row, col int) (Coordinate, error) {
	if !onBoard(row, col) {
		return Coordinate{}, fmt.Errorf("%w: row=%d col=%d", ErrInvalidCoordinate, row, col)
	}
	return Coordinate{idx: int8(row*Cols + col)}, nil
}

func CoordinateFromIndex(i int) (Coordinate, error) {
	if i < 0 || i >= NumSquares {
		return Coordinate{}, fmt.Errorf("%w: index=%d", ErrInvalidCoordinate, i)
	}
	return Coordinate{idx: int8(i)}, nil
}

// MustCoordinate 只给常量表和测试用
func MustCoordinate(row, col int) Coordinate {
	c, err := NewCoordinate(row, col)
	if err != nil {
		panic(err)
	}
	return c
}

func onBoard(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

func (c Coordinate) Index() int { return int(c.idx) }
func (c Coordinate) Row() int   { return int(c.idx) / Cols }
func (c Coordinate) Col() int   { return int(c.idx) % Cols }

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row(), c.Col())
}

// offset 越界返回 false，不会绕回
func (c Coordinate) offset(dr, dc int) (Coordinate, bool) {
	r, col := c.Row()+dr, c.Col()+dc
	if !onBoard(r, col) {
		return Coordinate{}, false
	}
	return Coordinate{idx: int8(r*Cols + col)}, true
}

// Up 朝黑方底线（行号增大）
func (c Coordinate) Up() (Coordinate, bool)    { return c.offset(+1, 0) }
func (c Coordinate) Down() (Coordinate, bool)  { return c.offset(-1, 0) }
func (c Coordinate) Left() (Coordinate, bool)  { return c.offset(0, -1) }
func (c Coordinate) Right() (Coordinate, bool) { return c.offset(0, +1) }

func (c Coordinate) UpLeft() (Coordinate, bool)    { return c.offset(+1, -1) }
func (c Coordinate) UpRight() (Coordinate, bool)   { return c.offset(+1, +1) }
func (c Coordinate) DownLeft() (Coordinate, bool)  { return c.offset(-1, -1) }
func (c Coordinate) DownRight() (Coordinate, bool) { return c.offset(-1, +1) }

func (c Coordinate) InRedHalf() bool   { return c.Row() < RiverRow }
func (c Coordinate) InBlackHalf() bool { return c.Row() >= RiverRow }

func (c Coordinate) InPalaceColumns() bool {
	col := c.Col()
	return col >= palaceColMin && col <= palaceColMax
}

// InPalace 是否在 side 一方的九宫
func (c Coordinate) InPalace(side Side) bool {
	if !c.InPalaceColumns() {
		return false
	}
	row := c.Row()
	switch side {
	case Red:
		return row <= 2
	case Black:
		return row >= Rows-3
	}
	return false
}

func ManhattanDistance(a, b Coordinate) int {
	dr := a.Row() - b.Row()
	dc := a.Col() - b.Col()
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// forward 兵的前进方向：红向上(+1)，黑向下(-1)
func forward(side Side) int {
	if side == Red {
		return +1
	}
	if side == Black {
		return -1
	}
	return 0
}

// crossedRiver 兵是否已过河
func crossedRiver(side Side, c Coordinate) bool {
	switch side {
	case Red:
		return c.InBlackHalf()
	case Black:
		return c.InRedHalf()
	}
	return false
}
