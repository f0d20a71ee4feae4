package xiangqi

import "errors"

var (
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrEmptySquareSelected = errors.New("empty square selected")
	ErrIllegalMove         = errors.New("illegal move")
	ErrStalePendingStep    = errors.New("pending step is stale")
	ErrGameConcluded       = errors.New("game is concluded")
	ErrNotYourTurn         = errors.New("piece does not belong to the side to move")
	ErrInvalidFrame        = errors.New("invalid frame")
)
