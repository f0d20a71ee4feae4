package xiangqi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMoveUsesRowMajorIndex(t *testing.T) {
	raw := EncodeMove(at(2, 1), at(9, 1))
	assert.Equal(t, [FrameSize]byte{19, 82}, raw)

	from, to, err := DecodeMove(raw)
	require.NoError(t, err)
	assert.Equal(t, at(2, 1), from)
	assert.Equal(t, at(9, 1), to)
}

func TestDecodeFrameRejectsOutOfRange(t *testing.T) {
	for _, raw := range [][FrameSize]byte{{90, 0}, {0, 90}, {0xFF, 0xFF}, {0xF0, 0x02}, {0xF1, 0x01}} {
		_, err := DecodeFrame(raw)
		assert.ErrorIs(t, err, ErrInvalidFrame, "% x", raw[:])
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "% x", raw[:])
	}
	f, err := DecodeFrame([FrameSize]byte{89, 0})
	require.NoError(t, err)
	assert.Equal(t, Frame{Kind: FrameMove, From: at(9, 8), To: at(0, 0)}, f)
}

func TestControlFrames(t *testing.T) {
	for _, tc := range []struct {
		raw  [FrameSize]byte
		kind FrameKind
	}{
		{[FrameSize]byte{0xF0, 0x00}, FrameUndo},
		{[FrameSize]byte{0xF0, 0x01}, FrameUndoAck},
		{[FrameSize]byte{0xF1, 0x00}, FrameReject},
	} {
		f, err := DecodeFrame(tc.raw)
		require.NoError(t, err, "% x", tc.raw[:])
		assert.Equal(t, tc.kind, f.Kind)
		assert.Equal(t, tc.raw, f.Encode())
	}
	assert.Equal(t, [FrameSize]byte{0xF0, 0x00}, EncodeUndo())
}

func TestPendingStepOverWire(t *testing.T) {
	local := NewController()
	remote := NewController()

	p, err := local.AttemptMove(at(0, 1), at(2, 2))
	require.NoError(t, err)
	raw := Frame{Kind: FrameMove, From: p.From, To: p.To}.Encode()
	_, err = local.Commit(p)
	require.NoError(t, err)

	f, err := DecodeFrame(raw)
	require.NoError(t, err)
	rp, err := remote.AttemptMove(f.From, f.To)
	require.NoError(t, err)
	_, err = remote.Commit(rp)
	require.NoError(t, err)

	assert.Equal(t, local.Track().Board(), remote.Track().Board())
	assert.Equal(t, local.Track().Hash(), remote.Track().Hash())
	assert.Equal(t, local.Turn(), remote.Turn())
}
