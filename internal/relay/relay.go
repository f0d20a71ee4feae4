// Package relay 局域网双人对战：本地请求和对方报文都交给同一个 goroutine 处理，
// 由它独占 Controller。
//
// 主机说了算：主机按收到的先后裁定每一步，自己的走子和悔棋直接执行后发给对方；
// 加入端的走子和悔棋只是请求，主机执行后回传（走子原样回传，悔棋回 0xF0 0x01），
// 不接受则回 0xF1 0x00。加入端只执行主机发来的报文，两端的盘面因此始终按同一顺序变化。
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"xiangqi/internal/logging"
	"xiangqi/internal/xiangqi"
)

var (
	ErrClosed         = errors.New("relay closed")
	ErrNotLocalSide   = errors.New("piece does not belong to the local side")
	ErrPeerGone       = errors.New("peer disconnected")
	ErrRejected       = errors.New("request rejected by host")
	ErrRequestPending = errors.New("previous request is still waiting for the host")
	ErrOutOfSync      = errors.New("host frame does not apply to the local board")
)

// Role 连接里的身份，由握手决定：发出握手字节的一方是主机
type Role int8

const (
	Host Role = iota
	Joiner
)

func (r Role) String() string {
	if r == Joiner {
		return "joiner"
	}
	return "host"
}

type Source int8

const (
	Local Source = iota
	Remote
)

func (s Source) String() string {
	if s == Remote {
		return "remote"
	}
	return "local"
}

// Event 一次已生效的走子或悔棋，附带生效后的盘面。
// Source 是发起方：加入端自己的请求经主机回传生效时也算 Local。
type Event struct {
	Source Source
	Kind   xiangqi.FrameKind
	Step   xiangqi.Step
	Turn   xiangqi.TurnState
	Board  xiangqi.Board
}

type request struct {
	kind     xiangqi.FrameKind
	from, to xiangqi.Coordinate
	reply    chan result
}

type result struct {
	step  xiangqi.Step
	ok    bool
	err   error
	fatal bool
}

type Relay struct {
	ctrl  *xiangqi.Controller
	local xiangqi.Side
	role  Role
	conn  io.ReadWriter

	onEvent  func(Event)
	requests chan request
	done     chan struct{}
	log      zerolog.Logger

	// 加入端等待主机答复的请求，只在 Run 里读写
	pending *request
}

type Option func(*Relay)

// WithEventHandler 在 Run 的 goroutine 里回调，不要在回调里调用 Move / Undo
func WithEventHandler(fn func(Event)) Option {
	return func(r *Relay) { r.onEvent = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Relay) { r.log = l }
}

// New local 是本机执的一方，只有这一方的棋子能从本地走
func New(ctrl *xiangqi.Controller, local xiangqi.Side, role Role, conn io.ReadWriter, opts ...Option) *Relay {
	r := &Relay{
		ctrl:     ctrl,
		local:    local,
		role:     role,
		conn:     conn,
		requests: make(chan request),
		done:     make(chan struct{}),
		log:      logging.Component("relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("local", local.String()).Str("role", role.String()).Logger()
	return r
}

func (r *Relay) Local() xiangqi.Side { return r.local }

func (r *Relay) Role() Role { return r.role }

// Move 本地走一步。主机端执行后发给对方即返回；
// 加入端要等主机回传才落子，被拒绝时返回 ErrRejected。
func (r *Relay) Move(ctx context.Context, from, to xiangqi.Coordinate) (xiangqi.Step, error) {
	res, err := r.call(ctx, request{kind: xiangqi.FrameMove, from: from, to: to})
	if err != nil {
		return xiangqi.Step{}, err
	}
	return res.step, res.err
}

// Undo 悔一步棋，与 Move 一样由主机裁定；没有可悔的棋时返回 false
func (r *Relay) Undo(ctx context.Context) (xiangqi.Step, bool, error) {
	res, err := r.call(ctx, request{kind: xiangqi.FrameUndo})
	if err != nil {
		return xiangqi.Step{}, false, err
	}
	return res.step, res.ok, res.err
}

func (r *Relay) call(ctx context.Context, req request) (result, error) {
	req.reply = make(chan result, 1)
	select {
	case r.requests <- req:
	case <-r.done:
		return result{}, ErrClosed
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-r.done:
		select {
		case res := <-req.reply:
			return res, nil
		default:
			return result{}, ErrClosed
		}
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// Run 处理请求和对方报文，直到 ctx 取消或连接断开。只能调用一次。
// 返回后由调用方关闭连接，读 goroutine 随之退出。
func (r *Relay) Run(ctx context.Context) error {
	defer close(r.done)

	frames := make(chan [xiangqi.FrameSize]byte, 16)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go r.readLoop(frames, readErr, stop)

	r.log.Info().Msg("relay started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Err(ctx.Err()).Msg("relay stopped")
			return ctx.Err()

		case req := <-r.requests:
			res, waiting := r.handleLocal(req)
			if waiting {
				r.pending = &req
				continue
			}
			req.reply <- res
			if res.fatal {
				return res.err
			}

		case raw := <-frames:
			if err := r.handleRemote(raw); err != nil {
				return err
			}

		case err := <-readErr:
			// 主机断开前发出的报文先执行完；主机这边已无法回传，不再处理请求
			if r.role == Joiner {
				if derr := r.drain(frames); derr != nil {
					return derr
				}
			}
			r.log.Warn().Err(err).Msg("peer connection closed")
			return fmt.Errorf("%w: %w", ErrPeerGone, err)
		}
	}
}

func (r *Relay) drain(frames <-chan [xiangqi.FrameSize]byte) error {
	for {
		select {
		case raw := <-frames:
			if err := r.handleRemote(raw); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *Relay) readLoop(frames chan<- [xiangqi.FrameSize]byte, errc chan<- error, stop <-chan struct{}) {
	for {
		var raw [xiangqi.FrameSize]byte
		if _, err := io.ReadFull(r.conn, raw[:]); err != nil {
			errc <- err
			return
		}
		select {
		case frames <- raw:
		case <-stop:
			return
		}
	}
}

// handleLocal 第二个返回值为 true 表示请求已发给主机，答复到了再回给调用方
func (r *Relay) handleLocal(req request) (result, bool) {
	if r.pending != nil {
		return result{err: ErrRequestPending}, false
	}

	switch req.kind {
	case xiangqi.FrameMove:
		pc := r.ctrl.Track().Piece(req.from)
		if !pc.IsEmpty() && pc.Side() != r.local {
			return result{err: fmt.Errorf("%w: %s at %s", ErrNotLocalSide, pc, req.from)}, false
		}
		p, err := r.ctrl.AttemptMove(req.from, req.to)
		if err != nil {
			return result{err: err}, false
		}
		if err := r.send(xiangqi.EncodeMove(p.From, p.To)); err != nil {
			return result{err: err, fatal: true}, false
		}
		if r.role == Joiner {
			return result{}, true
		}
		s, err := r.ctrl.Commit(p)
		if err != nil {
			return result{err: err}, false
		}
		r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("local move")
		r.emit(Local, xiangqi.FrameMove, s)
		return result{step: s, ok: true}, false

	case xiangqi.FrameUndo:
		if r.ctrl.Track().Len() == 0 {
			return result{}, false
		}
		if err := r.send(xiangqi.EncodeUndo()); err != nil {
			return result{err: err, fatal: true}, false
		}
		if r.role == Joiner {
			return result{}, true
		}
		s, ok := r.ctrl.Undo()
		if ok {
			r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("local undo")
			r.emit(Local, xiangqi.FrameUndo, s)
		}
		return result{step: s, ok: ok}, false
	}
	return result{err: fmt.Errorf("unknown request kind %s", req.kind)}, false
}

// handleRemote 返回错误时 Run 退出
func (r *Relay) handleRemote(raw [xiangqi.FrameSize]byte) error {
	f, err := xiangqi.DecodeFrame(raw)
	if r.role == Joiner {
		if err != nil {
			return r.outOfSync(err)
		}
		return r.applyFromHost(f)
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("rejecting malformed frame")
		return r.send(xiangqi.EncodeReject())
	}
	return r.serveRequest(f)
}

// serveRequest 主机端：裁定加入端的请求，每个请求都有且只有一个答复
func (r *Relay) serveRequest(f xiangqi.Frame) error {
	switch f.Kind {
	case xiangqi.FrameMove:
		if pc := r.ctrl.Track().Piece(f.From); !pc.IsEmpty() && pc.Side() == r.local {
			r.log.Warn().Stringer("from", f.From).Stringer("to", f.To).Msg("peer tried to move a local piece")
			return r.send(xiangqi.EncodeReject())
		}
		p, err := r.ctrl.AttemptMove(f.From, f.To)
		if err != nil {
			r.log.Warn().Err(err).Stringer("from", f.From).Stringer("to", f.To).Msg("rejecting remote move")
			return r.send(xiangqi.EncodeReject())
		}
		if err := r.send(xiangqi.EncodeMove(p.From, p.To)); err != nil {
			return err
		}
		s, err := r.ctrl.Commit(p)
		if err != nil {
			return r.outOfSync(err)
		}
		r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("remote move")
		r.emit(Remote, xiangqi.FrameMove, s)

	case xiangqi.FrameUndo:
		if r.ctrl.Track().Len() == 0 {
			r.log.Warn().Msg("peer asked for undo with empty history")
			return r.send(xiangqi.EncodeReject())
		}
		if err := r.send(xiangqi.EncodeUndoAck()); err != nil {
			return err
		}
		s, _ := r.ctrl.Undo()
		r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("remote undo")
		r.emit(Remote, xiangqi.FrameUndo, s)

	default:
		r.log.Warn().Stringer("kind", f.Kind).Msg("dropping host-only frame from peer")
	}
	return nil
}

// applyFromHost 加入端：主机发来的一律执行，执行不了说明两端已不一致
func (r *Relay) applyFromHost(f xiangqi.Frame) error {
	switch f.Kind {
	case xiangqi.FrameMove:
		mine := r.ctrl.Track().Piece(f.From).Side() == r.local
		p, err := r.ctrl.AttemptMove(f.From, f.To)
		if err != nil {
			return r.outOfSync(err)
		}
		s, err := r.ctrl.Commit(p)
		if err != nil {
			return r.outOfSync(err)
		}
		if mine {
			r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("local move confirmed")
			r.emit(Local, xiangqi.FrameMove, s)
			r.resolve(xiangqi.FrameMove, result{step: s, ok: true})
			return nil
		}
		r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("remote move")
		r.emit(Remote, xiangqi.FrameMove, s)

	case xiangqi.FrameUndo, xiangqi.FrameUndoAck:
		s, ok := r.ctrl.Undo()
		if !ok {
			return r.outOfSync(errors.New("undo with empty history"))
		}
		if f.Kind == xiangqi.FrameUndoAck {
			r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("local undo confirmed")
			r.emit(Local, xiangqi.FrameUndo, s)
			r.resolve(xiangqi.FrameUndo, result{step: s, ok: true})
			return nil
		}
		r.log.Debug().Stringer("from", s.From).Stringer("to", s.To).Msg("remote undo")
		r.emit(Remote, xiangqi.FrameUndo, s)

	case xiangqi.FrameReject:
		if r.pending == nil {
			r.log.Warn().Msg("host rejected a request that is not pending")
			return nil
		}
		r.log.Info().Stringer("kind", r.pending.kind).Msg("request rejected by host")
		r.pending.reply <- result{err: ErrRejected}
		r.pending = nil
	}
	return nil
}

func (r *Relay) resolve(kind xiangqi.FrameKind, res result) {
	if r.pending == nil || r.pending.kind != kind {
		r.log.Warn().Stringer("kind", kind).Msg("host confirmed a request that is not pending")
		return
	}
	r.pending.reply <- res
	r.pending = nil
}

func (r *Relay) outOfSync(err error) error {
	r.log.Error().Err(err).Int("ply", r.ctrl.Track().Len()).Msg("boards out of sync")
	return fmt.Errorf("%w: %w", ErrOutOfSync, err)
}

func (r *Relay) send(raw [xiangqi.FrameSize]byte) error {
	if _, err := r.conn.Write(raw[:]); err != nil {
		r.log.Error().Err(err).Msg("write to peer failed")
		return fmt.Errorf("%w: %w", ErrPeerGone, err)
	}
	return nil
}

func (r *Relay) emit(src Source, kind xiangqi.FrameKind, s xiangqi.Step) {
	if r.onEvent == nil {
		return
	}
	r.onEvent(Event{
		Source: src,
		Kind:   kind,
		Step:   s,
		Turn:   r.ctrl.Turn(),
		Board:  r.ctrl.Track().Board(),
	})
}
