package xiangqi

import "fmt"

// 联机报文固定 2 字节。走子：(from, to)，各为 row*9+col，必须 < 90。
// 控制报文首字节落在 >= 90 的区间，不会与走子混淆：
//
//	0xF0 0x00  悔棋
//	0xF0 0x01  同意对方的悔棋请求（随即执行）
//	0xF1 0x00  拒绝对方最早一个未答复的请求
const (
	FrameSize = 2

	ctrlUndo   byte = 0xF0
	ctrlReject byte = 0xF1

	undoRequest byte = 0x00
	undoGranted byte = 0x01
)

type FrameKind int8

const (
	FrameMove FrameKind = iota
	FrameUndo
	FrameUndoAck
	FrameReject
)

func (k FrameKind) String() string {
	switch k {
	case FrameMove:
		return "move"
	case FrameUndo:
		return "undo"
	case FrameUndoAck:
		return "undo-ack"
	case FrameReject:
		return "reject"
	}
	return fmt.Sprintf("FrameKind(%d)", int8(k))
}

type Frame struct {
	Kind FrameKind
	From Coordinate
	To   Coordinate
}

func EncodeMove(from, to Coordinate) [FrameSize]byte {
	return [FrameSize]byte{byte(from.idx), byte(to.idx)}
}

func EncodeUndo() [FrameSize]byte {
	return [FrameSize]byte{ctrlUndo, undoRequest}
}

func EncodeUndoAck() [FrameSize]byte {
	return [FrameSize]byte{ctrlUndo, undoGranted}
}

func EncodeReject() [FrameSize]byte {
	return [FrameSize]byte{ctrlReject, 0x00}
}

func (f Frame) Encode() [FrameSize]byte {
	switch f.Kind {
	case FrameUndo:
		return EncodeUndo()
	case FrameUndoAck:
		return EncodeUndoAck()
	case FrameReject:
		return EncodeReject()
	}
	return EncodeMove(f.From, f.To)
}

func DecodeMove(raw [FrameSize]byte) (Coordinate, Coordinate, error) {
	from, err := CoordinateFromIndex(int(raw[0]))
	if err != nil {
		return Coordinate{}, Coordinate{}, err
	}
	to, err := CoordinateFromIndex(int(raw[1]))
	if err != nil {
		return Coordinate{}, Coordinate{}, err
	}
	return from, to, nil
}

// DecodeFrame 解码一帧；非法坐标在这里就被拦下，到不了 AttemptMove
func DecodeFrame(raw [FrameSize]byte) (Frame, error) {
	switch raw {
	case EncodeUndo():
		return Frame{Kind: FrameUndo}, nil
	case EncodeUndoAck():
		return Frame{Kind: FrameUndoAck}, nil
	case EncodeReject():
		return Frame{Kind: FrameReject}, nil
	}
	from, to, err := DecodeMove(raw)
	if err != nil {
		return Frame{}, fmt.Errorf("%w % x: %w", ErrInvalidFrame, raw[:], err)
	}
	return Frame{Kind: FrameMove, From: from, To: to}, nil
}
