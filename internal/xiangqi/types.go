package xiangqi

type Side int8

const (
	NoSide Side = -1
	Red    Side = 0
	Black  Side = 1
)

func (s Side) Opponent() Side {
	switch s {
	case Red:
		return Black
	case Black:
		return Red
	}
	return NoSide
}

func (s Side) String() string {
	switch s {
	case Red:
		return "red"
	case Black:
		return "black"
	}
	return "none"
}

type PieceKind int8

const (
	KindNone PieceKind = iota
	General            // 帅 / 将
	Guard              // 仕 / 士
	Elephant           // 相 / 象
	Horse              // 马 / 馬
	Chariot            // 车 / 車
	Cannon             // 炮 / 砲
	Soldier            // 兵 / 卒
)

func (k PieceKind) String() string {
	switch k {
	case General:
		return "general"
	case Guard:
		return "guard"
	case Elephant:
		return "elephant"
	case Horse:
		return "horse"
	case Chariot:
		return "chariot"
	case Cannon:
		return "cannon"
	case Soldier:
		return "soldier"
	}
	return "none"
}

// Piece 0=空；>0 红；<0 黑；abs=PieceKind
type Piece int8

const Empty Piece = 0

func MakePiece(side Side, kind PieceKind) Piece {
	if kind == KindNone || side == NoSide {
		return Empty
	}
	if side == Red {
		return Piece(kind)
	}
	return -Piece(kind)
}

func (p Piece) Kind() PieceKind {
	if p < 0 {
		return PieceKind(-p)
	}
	return PieceKind(p)
}

func (p Piece) Side() Side {
	if p == Empty {
		return NoSide
	}
	if p > 0 {
		return Red
	}
	return Black
}

func (p Piece) IsEmpty() bool { return p == Empty }

// isAlly 同一方的子（空格不算）
func (p Piece) isAlly(side Side) bool {
	return p != Empty && p.Side() == side
}

// isEnemy 对方的子（空格不算）
func (p Piece) isEnemy(side Side) bool {
	return p != Empty && p.Side() != side
}

func (p Piece) String() string {
	if p == Empty {
		return "empty"
	}
	return p.Side().String() + " " + p.Kind().String()
}
