package relay

import (
	"errors"
	"fmt"
	"io"

	"xiangqi/internal/xiangqi"
)

var ErrBadHandshake = errors.New("bad handshake")

// 建立连接后主机先发一个字节，告诉对方执哪一方：0x00 红，0x01 黑
const (
	sideRedByte   byte = 0x00
	sideBlackByte byte = 0x01
)

// Greet 主机端：通知对方执 peer 方
func Greet(w io.Writer, peer xiangqi.Side) error {
	var b byte
	switch peer {
	case xiangqi.Red:
		b = sideRedByte
	case xiangqi.Black:
		b = sideBlackByte
	default:
		return fmt.Errorf("%w: side %s", ErrBadHandshake, peer)
	}
	_, err := w.Write([]byte{b})
	return err
}

// AwaitGreeting 加入端：读出自己执哪一方
func AwaitGreeting(r io.Reader) (xiangqi.Side, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return xiangqi.NoSide, fmt.Errorf("%w: %w", ErrBadHandshake, err)
	}
	switch buf[0] {
	case sideRedByte:
		return xiangqi.Red, nil
	case sideBlackByte:
		return xiangqi.Black, nil
	}
	return xiangqi.NoSide, fmt.Errorf("%w: side byte %#x", ErrBadHandshake, buf[0])
}
