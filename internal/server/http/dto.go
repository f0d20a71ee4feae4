package httpserver

import (
	"fmt"
	"strconv"

	"xiangqi/internal/xiangqi"
)

// 前端用的招法结构，坐标都是 row*9+col
type MoveDTO struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type StepDTO struct {
	From     int  `json:"from"`
	To       int  `json:"to"`
	Captured int8 `json:"captured"` // 被吃的子，0 表示没吃
}

type SelectionDTO struct {
	Anchor       int   `json:"anchor"`
	Destinations []int `json:"destinations"`
}

type CheckDTO struct {
	Red   bool `json:"red"`
	Black bool `json:"black"`
}

// StateDTO 一局的完整快照
type StateDTO struct {
	GameID     string        `json:"game_id"`
	Cells      []int8        `json:"cells"`   // 90 格，>0 红，<0 黑，绝对值为兵种
	Board      string        `json:"board"`   // 文本棋盘，调试用
	ToMove     int           `json:"to_move"` // 0=红, 1=黑, 对局结束为 -1
	Winner     int           `json:"winner"`  // -1 表示还没有胜者
	Status     string        `json:"status"`  // "ongoing" / "concluded"
	Ply        int           `json:"ply"`
	Hash       string        `json:"hash"` // 十六进制，避免 JS 丢精度
	InCheck    CheckDTO      `json:"in_check"`
	LastMove   *StepDTO      `json:"last_move,omitempty"`
	Selection  *SelectionDTO `json:"selection,omitempty"`
	LegalMoves []MoveDTO     `json:"legal_moves"` // 当前走子方所有可走棋
}

// NewGame 请求；Board 非空时按文本摆法开局（调试、残局用）
type NewGameRequest struct {
	Board  string `json:"board,omitempty"`
	ToMove int    `json:"to_move,omitempty"`
}

type GameRequest struct {
	GameID string `json:"game_id"`
}

type DestinationsRequest struct {
	GameID string `json:"game_id"`
	From   int    `json:"from"`
}

type DestinationsResponse struct {
	From         int   `json:"from"`
	Destinations []int `json:"destinations"`
}

type SelectRequest struct {
	GameID string `json:"game_id"`
	At     int    `json:"at"`
}

type SelectResponse struct {
	Outcome string   `json:"outcome"` // ignored / selected / deselected / moved
	Step    *StepDTO `json:"step,omitempty"`
	State   StateDTO `json:"state"`
}

type MoveRequest struct {
	GameID string  `json:"game_id"`
	Move   MoveDTO `json:"move"`
}

type MoveResponse struct {
	Step  StepDTO  `json:"step"`
	State StateDTO `json:"state"`
}

type UndoResponse struct {
	Undone bool     `json:"undone"`
	Step   *StepDTO `json:"step,omitempty"`
	State  StateDTO `json:"state"`
}

func sideToInt(s xiangqi.Side) int {
	switch s {
	case xiangqi.Red:
		return 0
	case xiangqi.Black:
		return 1
	default:
		return -1
	}
}

// intToSide 只认 0（红）和 1（黑）
func intToSide(v int) (xiangqi.Side, error) {
	switch v {
	case 0:
		return xiangqi.Red, nil
	case 1:
		return xiangqi.Black, nil
	}
	return xiangqi.NoSide, fmt.Errorf("to_move must be 0 or 1, got %d", v)
}

func stepToDTO(s xiangqi.Step) StepDTO {
	return StepDTO{From: s.From.Index(), To: s.To.Index(), Captured: int8(s.Captured)}
}

func coordsToInts(cs []xiangqi.Coordinate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.Index()
	}
	return out
}

func movesToDTO(ms []xiangqi.Move) []MoveDTO {
	out := make([]MoveDTO, len(ms))
	for i, m := range ms {
		out[i] = MoveDTO{From: m.From.Index(), To: m.To.Index()}
	}
	return out
}

// snapshot 调用方须持有会话锁
func snapshot(id string, c *xiangqi.Controller) StateDTO {
	b := c.Track().Board()
	cells := make([]int8, xiangqi.NumSquares)
	for i, pc := range b.Squares {
		cells[i] = int8(pc)
	}

	turn := c.Turn()
	st := StateDTO{
		GameID:     id,
		Cells:      cells,
		Board:      b.String(),
		ToMove:     -1,
		Winner:     sideToInt(turn.Winner),
		Status:     "ongoing",
		Ply:        c.Track().Len(),
		Hash:       strconv.FormatUint(c.Track().Hash(), 16),
		InCheck:    CheckDTO{Red: c.InCheck(xiangqi.Red), Black: c.InCheck(xiangqi.Black)},
		LegalMoves: []MoveDTO{},
	}
	if side, ok := turn.ToMove(); ok {
		st.ToMove = sideToInt(side)
		st.LegalMoves = movesToDTO(xiangqi.MovesForSide(&b, side))
	} else {
		st.Status = "concluded"
	}
	if last, ok := c.Track().Last(); ok {
		d := stepToDTO(last)
		st.LastMove = &d
	}
	if sel, ok := c.Selection(); ok {
		st.Selection = &SelectionDTO{Anchor: sel.Anchor.Index(), Destinations: coordsToInts(sel.Destinations)}
	}
	return st
}
