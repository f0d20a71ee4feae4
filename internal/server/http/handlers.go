package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"xiangqi/internal/logging"
	"xiangqi/internal/server/game"
	"xiangqi/internal/xiangqi"
)

// Handler 实现 http.Handler，用于 /api/* 路由
type Handler struct {
	games *game.Manager
	log   zerolog.Logger
}

func NewHandler(games *game.Manager) *Handler {
	return &Handler{games: games, log: logging.Component("http")}
}

// WithLogger 替换默认 logger，测试里用 zerolog.Nop()
func (h *Handler) WithLogger(l zerolog.Logger) *Handler {
	h.log = l
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var fn func(http.ResponseWriter, *http.Request)
	switch r.URL.Path {
	case "/api/new_game":
		fn = h.handleNewGame
	case "/api/state":
		fn = h.handleState
	case "/api/destinations":
		fn = h.handleDestinations
	case "/api/select":
		fn = h.handleSelect
	case "/api/move":
		fn = h.handleMove
	case "/api/undo":
		fn = h.handleUndo
	default:
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fn(w, r)
}

func (h *Handler) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	// 空请求体按标准开局处理
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var s *game.Session
	toMove, err := intToSide(req.ToMove)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Board != "" {
		b, perr := xiangqi.ParseBoard(req.Board)
		if perr != nil {
			http.Error(w, "invalid board: "+perr.Error(), http.StatusBadRequest)
			return
		}
		s, err = h.games.NewGameFrom(b, toMove)
	} else {
		s, err = h.games.NewGame()
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	var resp StateDTO
	_ = s.Do(func(c *xiangqi.Controller) error {
		resp = snapshot(s.ID, c)
		return nil
	})
	h.log.Info().Str("game_id", s.ID).Msg("new game")
	writeJSON(w, h.log, resp)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	s, ok := h.decodeSession(w, r, &req, func() string { return req.GameID })
	if !ok {
		return
	}
	var resp StateDTO
	_ = s.Do(func(c *xiangqi.Controller) error {
		resp = snapshot(s.ID, c)
		return nil
	})
	writeJSON(w, h.log, resp)
}

func (h *Handler) handleDestinations(w http.ResponseWriter, r *http.Request) {
	var req DestinationsRequest
	s, ok := h.decodeSession(w, r, &req, func() string { return req.GameID })
	if !ok {
		return
	}
	from, err := xiangqi.CoordinateFromIndex(req.From)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var resp DestinationsResponse
	err = s.Do(func(c *xiangqi.Controller) error {
		dests, err := c.LegalDestinations(from)
		if err != nil {
			return err
		}
		resp = DestinationsResponse{From: req.From, Destinations: coordsToInts(dests)}
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, h.log, resp)
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	s, ok := h.decodeSession(w, r, &req, func() string { return req.GameID })
	if !ok {
		return
	}
	at, err := xiangqi.CoordinateFromIndex(req.At)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var resp SelectResponse
	_ = s.Do(func(c *xiangqi.Controller) error {
		res := c.Select(at)
		resp.Outcome = res.Outcome.String()
		if res.Outcome == xiangqi.Moved {
			d := stepToDTO(res.Step)
			resp.Step = &d
		}
		resp.State = snapshot(s.ID, c)
		return nil
	})
	if resp.Step != nil {
		h.logStep(s.ID, *resp.Step, resp.State)
	}
	writeJSON(w, h.log, resp)
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	s, ok := h.decodeSession(w, r, &req, func() string { return req.GameID })
	if !ok {
		return
	}
	from, err := xiangqi.CoordinateFromIndex(req.Move.From)
	if err != nil {
		h.writeError(w, err)
		return
	}
	to, err := xiangqi.CoordinateFromIndex(req.Move.To)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var resp MoveResponse
	err = s.Do(func(c *xiangqi.Controller) error {
		p, err := c.AttemptMove(from, to)
		if err != nil {
			return err
		}
		st, err := c.Commit(p)
		if err != nil {
			return err
		}
		resp = MoveResponse{Step: stepToDTO(st), State: snapshot(s.ID, c)}
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logStep(s.ID, resp.Step, resp.State)
	writeJSON(w, h.log, resp)
}

func (h *Handler) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	s, ok := h.decodeSession(w, r, &req, func() string { return req.GameID })
	if !ok {
		return
	}

	var resp UndoResponse
	_ = s.Do(func(c *xiangqi.Controller) error {
		st, undone := c.Undo()
		resp.Undone = undone
		if undone {
			d := stepToDTO(st)
			resp.Step = &d
		}
		resp.State = snapshot(s.ID, c)
		return nil
	})
	writeJSON(w, h.log, resp)
}

// decodeSession 解析请求体并取出会话；失败时已写好响应
func (h *Handler) decodeSession(w http.ResponseWriter, r *http.Request, req any, id func() string) (*game.Session, bool) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return nil, false
	}
	s, err := h.games.Get(id())
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) logStep(id string, s StepDTO, st StateDTO) {
	ev := h.log.Info().
		Str("game_id", id).
		Int("from", s.From).
		Int("to", s.To).
		Int("ply", st.Ply)
	if st.Status == "concluded" {
		ev = ev.Int("winner", st.Winner)
	}
	ev.Msg("move")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, xiangqi.ErrInvalidCoordinate),
		errors.Is(err, xiangqi.ErrEmptySquareSelected),
		errors.Is(err, xiangqi.ErrIllegalMove),
		errors.Is(err, xiangqi.ErrStalePendingStep),
		errors.Is(err, xiangqi.ErrGameConcluded),
		errors.Is(err, xiangqi.ErrNotYourTurn):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request failed")
	} else {
		h.log.Debug().Err(err).Int("status", code).Msg("request rejected")
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writeJSON error")
	}
}
