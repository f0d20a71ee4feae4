package xiangqi

import "fmt"

// Step 一步已提交的走子，足以完整撤销
type Step struct {
	From     Coordinate
	To       Coordinate
	Captured Piece // 走子前 To 上的子，可能为空
}

// PendingStep 校验过但尚未落盘的走子，只能由 AttemptStep 产生。
// 记下校验时的历史长度和盘面哈希，两者任一对不上即视为过期；
// 提交时还会按当前盘面重新校验一遍走法。
type PendingStep struct {
	From     Coordinate
	To       Coordinate
	Captured Piece
	Ply      int

	hash uint64
}

func (p PendingStep) Step() Step {
	return Step{From: p.From, To: p.To, Captured: p.Captured}
}

// BoardTrack 持有棋盘和走子历史；棋盘只能经 Commit / Undo 改变
type BoardTrack struct {
	board Board
	steps []Step
	hash  uint64
}

func NewBoardTrack() *BoardTrack {
	return NewBoardTrackFrom(NewBoard())
}

// NewBoardTrackFrom 从任意摆法开始，历史为空
func NewBoardTrackFrom(b Board) *BoardTrack {
	return &BoardTrack{board: b, hash: b.Hash()}
}

// Board 返回棋盘副本
func (t *BoardTrack) Board() Board { return t.board }

func (t *BoardTrack) Piece(c Coordinate) Piece { return t.board.Get(c) }

func (t *BoardTrack) Len() int { return len(t.steps) }

func (t *BoardTrack) Hash() uint64 { return t.hash }

func (t *BoardTrack) History() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Last 最近一步
func (t *BoardTrack) Last() (Step, bool) {
	if len(t.steps) == 0 {
		return Step{}, false
	}
	return t.steps[len(t.steps)-1], true
}

func (t *BoardTrack) LegalDestinations(from Coordinate) ([]Coordinate, error) {
	return Destinations(&t.board, from)
}

// AttemptStep 只校验不落子
func (t *BoardTrack) AttemptStep(from, to Coordinate) (PendingStep, error) {
	dests, err := t.LegalDestinations(from)
	if err != nil {
		return PendingStep{}, err
	}
	if !containsCoordinate(dests, to) {
		return PendingStep{}, fmt.Errorf("%w: %s -> %s", ErrIllegalMove, from, to)
	}
	return PendingStep{
		From:     from,
		To:       to,
		Captured: t.board.Get(to),
		Ply:      len(t.steps),
		hash:     t.hash,
	}, nil
}

// Commit 落子并记入历史
func (t *BoardTrack) Commit(p PendingStep) (Step, error) {
	if p.Ply != len(t.steps) || p.hash != t.hash {
		return Step{}, fmt.Errorf("%w: attempted at ply %d, now %d", ErrStalePendingStep, p.Ply, len(t.steps))
	}
	dests, err := t.LegalDestinations(p.From)
	if err != nil {
		return Step{}, err
	}
	if !containsCoordinate(dests, p.To) || t.board.Get(p.To) != p.Captured {
		return Step{}, fmt.Errorf("%w: %s -> %s", ErrIllegalMove, p.From, p.To)
	}
	s := p.Step()
	moved := t.board.Get(s.From)
	t.board.Set(s.To, moved)
	t.board.Set(s.From, Empty)
	t.steps = append(t.steps, s)
	t.hash = stepHash(t.hash, moved, s)
	return s, nil
}

// Undo 撤销最后一步；历史为空时返回 false
func (t *BoardTrack) Undo() (Step, bool) {
	s, ok := t.Last()
	if !ok {
		return Step{}, false
	}
	t.steps = t.steps[:len(t.steps)-1]
	moved := t.board.Get(s.To)
	t.board.Set(s.From, moved)
	t.board.Set(s.To, s.Captured)
	t.hash = stepHash(t.hash, moved, s)
	return s, true
}
