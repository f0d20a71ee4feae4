package relay

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xiangqi/internal/xiangqi"
)

func at(row, col int) xiangqi.Coordinate { return xiangqi.MustCoordinate(row, col) }

type peer struct {
	relay  *Relay
	events chan Event
	errc   chan error
}

func startPeer(ctx context.Context, t *testing.T, side xiangqi.Side, role Role, conn io.ReadWriter) *peer {
	t.Helper()
	p := &peer{events: make(chan Event, 16), errc: make(chan error, 1)}
	p.relay = New(xiangqi.NewController(), side, role, conn,
		WithLogger(zerolog.Nop()),
		WithEventHandler(func(e Event) { p.events <- e }),
	)
	go func() { p.errc <- p.relay.Run(ctx) }()
	return p
}

func (p *peer) next(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-p.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relay event")
	}
	return Event{}
}

func (p *peer) quiet(t *testing.T) {
	t.Helper()
	select {
	case e := <-p.events:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

// gatedConn 扣住写出的报文，Release 时一起发出，用来让两端的报文在线上交错
type gatedConn struct {
	net.Conn

	mu     sync.Mutex
	gated  bool
	held   []byte
	queued chan struct{}
}

func newGatedConn(c net.Conn) *gatedConn {
	return &gatedConn{Conn: c, queued: make(chan struct{}, 4)}
}

func (c *gatedConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	if !c.gated {
		c.mu.Unlock()
		return c.Conn.Write(b)
	}
	c.held = append(c.held, b...)
	c.mu.Unlock()
	c.queued <- struct{}{}
	return len(b), nil
}

func (c *gatedConn) Hold() {
	c.mu.Lock()
	c.gated = true
	c.mu.Unlock()
}

func (c *gatedConn) Release() error {
	c.mu.Lock()
	held := c.held
	c.held, c.gated = nil, false
	c.mu.Unlock()
	_, err := c.Conn.Write(held)
	return err
}

func (c *gatedConn) waitQueued(t *testing.T) {
	t.Helper()
	select {
	case <-c.queued:
	case <-time.After(2 * time.Second):
		t.Fatal("nothing written")
	}
}

type moveResult struct {
	step xiangqi.Step
	err  error
}

func moveAsync(ctx context.Context, r *Relay, from, to xiangqi.Coordinate) <-chan moveResult {
	out := make(chan moveResult, 1)
	go func() {
		s, err := r.Move(ctx, from, to)
		out <- moveResult{s, err}
	}()
	return out
}

type undoResult struct {
	step xiangqi.Step
	ok   bool
	err  error
}

func undoAsync(ctx context.Context, r *Relay) <-chan undoResult {
	out := make(chan undoResult, 1)
	go func() {
		s, ok, err := r.Undo(ctx)
		out <- undoResult{s, ok, err}
	}()
	return out
}

func readFrame(t *testing.T, c net.Conn) [xiangqi.FrameSize]byte {
	t.Helper()
	var buf [xiangqi.FrameSize]byte
	_, err := io.ReadFull(c, buf[:])
	require.NoError(t, err)
	return buf
}

func writeFrame(t *testing.T, c net.Conn, raw [xiangqi.FrameSize]byte) {
	t.Helper()
	_, err := c.Write(raw[:])
	require.NoError(t, err)
}

func TestHandshake(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go func() { _ = Greet(a, xiangqi.Black) }()
	side, err := AwaitGreeting(b)
	require.NoError(t, err)
	assert.Equal(t, xiangqi.Black, side)

	_, err = AwaitGreeting(bytes.NewReader([]byte{0x07}))
	assert.ErrorIs(t, err, ErrBadHandshake)
	_, err = AwaitGreeting(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrBadHandshake)
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, Greet(io.Discard, xiangqi.NoSide), ErrBadHandshake)
}

func TestRelayKeepsBothSidesInSync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	red := startPeer(ctx, t, xiangqi.Red, Host, a)
	black := startPeer(ctx, t, xiangqi.Black, Joiner, b)

	s, err := red.relay.Move(ctx, at(2, 7), at(2, 4))
	require.NoError(t, err)
	assert.Equal(t, at(2, 4), s.To)
	local := red.next(t)
	assert.Equal(t, Local, local.Source)
	remote := black.next(t)
	assert.Equal(t, Remote, remote.Source)
	assert.Equal(t, xiangqi.FrameMove, remote.Kind)
	assert.Equal(t, s, remote.Step)
	assert.Equal(t, xiangqi.BlackToMove, remote.Turn.Phase)

	// 加入端的走子经主机回传才生效
	_, err = black.relay.Move(ctx, at(9, 7), at(7, 6))
	require.NoError(t, err)
	blackLocal := black.next(t)
	assert.Equal(t, Local, blackLocal.Source)
	redRemote := red.next(t)
	assert.Equal(t, Remote, redRemote.Source)
	assert.Equal(t, blackLocal.Board, redRemote.Board)
	assert.Equal(t, xiangqi.RedToMove, redRemote.Turn.Phase)

	undone, ok, err := red.relay.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(9, 7), undone.From)
	redUndo := red.next(t)
	blackUndo := black.next(t)
	assert.Equal(t, xiangqi.FrameUndo, blackUndo.Kind)
	assert.Equal(t, Remote, blackUndo.Source)
	assert.Equal(t, redUndo.Board, blackUndo.Board)
	assert.Equal(t, xiangqi.BlackToMove, blackUndo.Turn.Phase)
	assert.Equal(t, remote.Board, blackUndo.Board)

	undone, ok, err = black.relay.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(2, 7), undone.From)
	blackUndo = black.next(t)
	assert.Equal(t, Local, blackUndo.Source)
	redUndo = red.next(t)
	assert.Equal(t, Remote, redUndo.Source)
	assert.Equal(t, xiangqi.NewBoard(), redUndo.Board)
	assert.Equal(t, redUndo.Board, blackUndo.Board)
}

func TestRelayCrossingUndoFollowsHostOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	gate := newGatedConn(b)

	red := startPeer(ctx, t, xiangqi.Red, Host, a)
	black := startPeer(ctx, t, xiangqi.Black, Joiner, gate)

	_, err := red.relay.Move(ctx, at(2, 7), at(2, 4))
	require.NoError(t, err)
	red.next(t)
	black.next(t)
	_, err = black.relay.Move(ctx, at(9, 7), at(7, 6))
	require.NoError(t, err)
	black.next(t)
	red.next(t)

	// 黑方悔棋请求还在路上，红方已走出下一步
	gate.Hold()
	undo := undoAsync(ctx, black.relay)
	gate.waitQueued(t)
	_, err = red.relay.Move(ctx, at(0, 0), at(1, 0))
	require.NoError(t, err)
	red.next(t)
	e := black.next(t)
	assert.Equal(t, Remote, e.Source)
	assert.Equal(t, at(1, 0), e.Step.To)
	require.NoError(t, gate.Release())

	// 主机按到达顺序悔掉的是红方刚走的一步
	res := <-undo
	require.NoError(t, res.err)
	require.True(t, res.ok)
	assert.Equal(t, xiangqi.Step{From: at(0, 0), To: at(1, 0)}, res.step)
	redUndo := red.next(t)
	blackUndo := black.next(t)
	assert.Equal(t, Remote, redUndo.Source)
	assert.Equal(t, Local, blackUndo.Source)
	assert.Equal(t, redUndo.Board, blackUndo.Board)
	assert.Equal(t, redUndo.Turn, blackUndo.Turn)
	assert.Equal(t, xiangqi.RedToMove, blackUndo.Turn.Phase)
	assert.Equal(t, 2, red.relay.ctrl.Track().Len())
}

func TestRelayCrossingMoveIsRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	gate := newGatedConn(b)

	red := startPeer(ctx, t, xiangqi.Red, Host, a)
	black := startPeer(ctx, t, xiangqi.Black, Joiner, gate)

	_, err := red.relay.Move(ctx, at(2, 7), at(2, 4))
	require.NoError(t, err)
	red.next(t)
	black.next(t)

	// 黑方走子请求还在路上，红方悔掉了自己的一步
	gate.Hold()
	mv := moveAsync(ctx, black.relay, at(6, 0), at(5, 0))
	gate.waitQueued(t)
	_, ok, err := red.relay.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	redUndo := red.next(t)
	blackUndo := black.next(t)
	assert.Equal(t, Remote, blackUndo.Source)
	require.NoError(t, gate.Release())

	res := <-mv
	assert.ErrorIs(t, res.err, ErrRejected)
	red.quiet(t)
	black.quiet(t)
	assert.Equal(t, 0, red.relay.ctrl.Track().Len())
	assert.Equal(t, redUndo.Board, blackUndo.Board)
	assert.Equal(t, xiangqi.RedToMove, blackUndo.Turn.Phase)
}

func TestRelayRejectsLocalMovesOfPeerPieces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	red := startPeer(ctx, t, xiangqi.Red, Host, a)

	_, err := red.relay.Move(ctx, at(6, 0), at(5, 0))
	assert.ErrorIs(t, err, ErrNotLocalSide)
	_, err = red.relay.Move(ctx, at(3, 0), at(3, 1))
	assert.ErrorIs(t, err, xiangqi.ErrIllegalMove)
	_, ok, err := red.relay.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHostAnswersEveryRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	red := startPeer(ctx, t, xiangqi.Red, Host, a)

	moved := moveAsync(ctx, red.relay, at(3, 4), at(4, 4))
	assert.Equal(t, xiangqi.EncodeMove(at(3, 4), at(4, 4)), readFrame(t, b))
	res := <-moved
	require.NoError(t, res.err)
	red.next(t)

	bad := [][xiangqi.FrameSize]byte{
		{90, 0},                                // 越界
		{0xF0, 0x07},                           // 未知控制帧
		xiangqi.EncodeMove(at(0, 0), at(1, 0)), // 动主机的车
		xiangqi.EncodeMove(at(6, 0), at(4, 0)), // 卒走两格
	}
	for _, raw := range bad {
		writeFrame(t, b, raw)
		assert.Equal(t, xiangqi.EncodeReject(), readFrame(t, b), "% x", raw[:])
	}
	red.quiet(t)

	// 加入端不该发的帧直接丢弃，不答复
	writeFrame(t, b, xiangqi.EncodeReject())
	legal := xiangqi.EncodeMove(at(6, 2), at(5, 2))
	writeFrame(t, b, legal)
	assert.Equal(t, legal, readFrame(t, b))

	e := red.next(t)
	assert.Equal(t, Remote, e.Source)
	assert.Equal(t, xiangqi.Step{From: at(6, 2), To: at(5, 2)}, e.Step)
	assert.Equal(t, xiangqi.RedToMove, e.Turn.Phase)

	writeFrame(t, b, xiangqi.EncodeUndo())
	assert.Equal(t, xiangqi.EncodeUndoAck(), readFrame(t, b))
	e = red.next(t)
	assert.Equal(t, xiangqi.FrameUndo, e.Kind)
	assert.Equal(t, xiangqi.BlackToMove, e.Turn.Phase)
	red.quiet(t)
}

func TestJoinerWaitsForHost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	black := startPeer(ctx, t, xiangqi.Black, Joiner, a)

	writeFrame(t, b, xiangqi.EncodeMove(at(3, 0), at(4, 0)))
	e := black.next(t)
	assert.Equal(t, Remote, e.Source)

	// 被拒绝：盘面不动
	mv := moveAsync(ctx, black.relay, at(6, 0), at(5, 0))
	assert.Equal(t, xiangqi.EncodeMove(at(6, 0), at(5, 0)), readFrame(t, b))
	black.quiet(t)
	_, _, err := black.relay.Undo(ctx)
	assert.ErrorIs(t, err, ErrRequestPending)
	writeFrame(t, b, xiangqi.EncodeReject())
	res := <-mv
	assert.ErrorIs(t, res.err, ErrRejected)
	assert.Equal(t, 1, black.relay.ctrl.Track().Len())

	// 主机回传后才落子
	mv = moveAsync(ctx, black.relay, at(6, 0), at(5, 0))
	raw := readFrame(t, b)
	writeFrame(t, b, raw)
	res = <-mv
	require.NoError(t, res.err)
	assert.Equal(t, xiangqi.Step{From: at(6, 0), To: at(5, 0)}, res.step)
	e = black.next(t)
	assert.Equal(t, Local, e.Source)
	assert.Equal(t, xiangqi.RedToMove, e.Turn.Phase)

	undo := undoAsync(ctx, black.relay)
	assert.Equal(t, xiangqi.EncodeUndo(), readFrame(t, b))
	writeFrame(t, b, xiangqi.EncodeUndoAck())
	un := <-undo
	require.NoError(t, un.err)
	require.True(t, un.ok)
	assert.Equal(t, at(5, 0), un.step.To)
	e = black.next(t)
	assert.Equal(t, Local, e.Source)
	assert.Equal(t, xiangqi.BlackToMove, e.Turn.Phase)

	// 主机发来执行不了的走子：两端已不一致，停下
	writeFrame(t, b, xiangqi.EncodeMove(at(0, 0), at(5, 0)))
	select {
	case err := <-black.errc:
		assert.ErrorIs(t, err, ErrOutOfSync)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelayStopsWhenPeerCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := net.Pipe()
	defer a.Close()

	red := startPeer(ctx, t, xiangqi.Red, Host, a)
	require.NoError(t, b.Close())

	select {
	case err := <-red.errc:
		assert.ErrorIs(t, err, ErrPeerGone)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
	_, err := red.relay.Move(ctx, at(3, 0), at(4, 0))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRelayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	red := startPeer(ctx, t, xiangqi.Red, Host, a)
	cancel()

	select {
	case err := <-red.errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
