package xiangqi

import "fmt"

type Phase int8

const (
	RedToMove Phase = iota
	BlackToMove
	Concluded
)

func (p Phase) String() string {
	switch p {
	case RedToMove:
		return "red_to_move"
	case BlackToMove:
		return "black_to_move"
	case Concluded:
		return "concluded"
	}
	return fmt.Sprintf("Phase(%d)", int8(p))
}

// TurnState 轮到谁走，或者对局已结束（Winner 为 NoSide 表示无胜者）
type TurnState struct {
	Phase  Phase
	Winner Side
}

func turnOf(side Side) TurnState {
	if side == Black {
		return TurnState{Phase: BlackToMove, Winner: NoSide}
	}
	return TurnState{Phase: RedToMove, Winner: NoSide}
}

// ToMove 当前走子方；对局结束时返回 false
func (t TurnState) ToMove() (Side, bool) {
	switch t.Phase {
	case RedToMove:
		return Red, true
	case BlackToMove:
		return Black, true
	}
	return NoSide, false
}

func (t TurnState) IsConcluded() bool { return t.Phase == Concluded }

func (t TurnState) String() string {
	if t.Phase == Concluded {
		return fmt.Sprintf("concluded(winner=%s)", t.Winner)
	}
	return t.Phase.String()
}

// Selection 选中的棋子及其可达点，换手、提交、取消选中时丢弃
type Selection struct {
	Anchor       Coordinate
	Destinations []Coordinate
}

type Outcome int8

const (
	Ignored Outcome = iota
	Selected
	Deselected
	Moved
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	case Moved:
		return "moved"
	}
	return fmt.Sprintf("Outcome(%d)", int8(o))
}

type SelectResult struct {
	Outcome Outcome
	Step    Step // Outcome == Moved 时有效
}

// Controller 轮次、选中状态、胜负判定。非并发安全：调用方保证同一时刻只有一个写者。
type Controller struct {
	track *BoardTrack
	turn  TurnState
	sel   *Selection
}

func NewController() *Controller {
	return NewControllerFrom(NewBoardTrack(), Red)
}

// NewControllerFrom 从给定的棋盘与走子方开始
func NewControllerFrom(track *BoardTrack, toMove Side) *Controller {
	return &Controller{track: track, turn: turnOf(toMove)}
}

func (c *Controller) Turn() TurnState { return c.turn }

// Track 只读访问；改棋盘请走 AttemptMove / Commit
func (c *Controller) Track() *BoardTrack { return c.track }

func (c *Controller) Selection() (Selection, bool) {
	if c.sel == nil {
		return Selection{}, false
	}
	s := Selection{Anchor: c.sel.Anchor, Destinations: make([]Coordinate, len(c.sel.Destinations))}
	copy(s.Destinations, c.sel.Destinations)
	return s, true
}

func (c *Controller) LegalDestinations(from Coordinate) ([]Coordinate, error) {
	return c.track.LegalDestinations(from)
}

func (c *Controller) InCheck(side Side) bool {
	b := c.track.Board()
	return InCheck(&b, side)
}

// Select 处理一次点击。所有无效点击都是 Ignored，不报错。
func (c *Controller) Select(at Coordinate) SelectResult {
	toMove, ok := c.turn.ToMove()
	if !ok {
		return SelectResult{Outcome: Ignored}
	}

	if c.sel != nil {
		if at == c.sel.Anchor {
			c.sel = nil
			return SelectResult{Outcome: Deselected}
		}
		if containsCoordinate(c.sel.Destinations, at) {
			p, err := c.AttemptMove(c.sel.Anchor, at)
			if err != nil {
				return SelectResult{Outcome: Ignored}
			}
			s, err := c.Commit(p)
			if err != nil {
				return SelectResult{Outcome: Ignored}
			}
			return SelectResult{Outcome: Moved, Step: s}
		}
	}

	if !c.track.Piece(at).isAlly(toMove) {
		return SelectResult{Outcome: Ignored}
	}
	dests, err := c.track.LegalDestinations(at)
	if err != nil {
		return SelectResult{Outcome: Ignored}
	}
	c.sel = &Selection{Anchor: at, Destinations: dests}
	return SelectResult{Outcome: Selected}
}

// AttemptMove 校验一步走子（含轮次），不改棋盘
func (c *Controller) AttemptMove(from, to Coordinate) (PendingStep, error) {
	if err := c.checkMover(from); err != nil {
		return PendingStep{}, err
	}
	return c.track.AttemptStep(from, to)
}

// Commit 落子、清除选中、换手；吃掉对方将则对局结束
func (c *Controller) Commit(p PendingStep) (Step, error) {
	if err := c.checkMover(p.From); err != nil {
		return Step{}, err
	}
	mover := c.track.Piece(p.From).Side()
	s, err := c.track.Commit(p)
	if err != nil {
		return Step{}, err
	}
	c.sel = nil
	if s.Captured == MakePiece(mover.Opponent(), General) {
		c.turn = TurnState{Phase: Concluded, Winner: mover}
	} else {
		c.turn = turnOf(mover.Opponent())
	}
	return s, nil
}

// Undo 悔一步棋，轮次回到走这步棋的一方（对局结束后也可悔棋）
func (c *Controller) Undo() (Step, bool) {
	s, ok := c.track.Undo()
	if !ok {
		return Step{}, false
	}
	c.sel = nil
	c.turn = turnOf(c.track.Piece(s.From).Side())
	return s, true
}

func (c *Controller) checkMover(from Coordinate) error {
	toMove, ok := c.turn.ToMove()
	if !ok {
		return ErrGameConcluded
	}
	pc := c.track.Piece(from)
	if pc == Empty {
		return fmt.Errorf("%w: %s", ErrEmptySquareSelected, from)
	}
	if pc.Side() != toMove {
		return fmt.Errorf("%w: %s at %s", ErrNotYourTurn, pc, from)
	}
	return nil
}
