// internal/httpserver/routes_ws.go
//
// WebSocket play on GET /game/ws.
//
// Protocol (JSON text frames):
//
//	client → {"type":"start","low":0,"high":22,"maxGuesses":10}
//	client → {"type":"resume","gameId":"…"}
//	client → {"type":"feedback","answer":"lower"}
//	server → {"type":"guess","gameId":"…","guess":11,"state":"playing",…}
//	server → {"type":"error","error":"…"}
//
// One connection plays one game at a time; "start" replaces the current one.
// "resume" only reaches games owned by the connecting user or anonymous session.
// Reads are rate limited per connection.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/store"
)

const (
	wsSessionTimeout = time.Hour
	wsWriteTimeout   = 5 * time.Second
	wsReadLimit      = 4096
)

type wsMsg struct {
	Type       string `json:"type"`
	Low        *int   `json:"low,omitempty"`
	High       *int   `json:"high,omitempty"`
	MaxGuesses int    `json:"maxGuesses,omitempty"`
	GameID     string `json:"gameId,omitempty"`
	Answer     string `json:"answer,omitempty"`
}

type wsReply struct {
	Type string `json:"type"`
	*gameView
	Error string `json:"error,omitempty"`
}

// wsSession is the per-connection state.
type wsSession struct {
	srv    *Server
	conn   *websocket.Conn
	userID string
	anonID string
	gameID string
	log    *zerolog.Logger
}

// handleWS accepts the WebSocket connection and serves messages until the
// client closes, the session times out, or a write fails.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	// Owner cookie must be set before the upgrade response is written.
	userID, anonID := s.owner(w, r)

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns()})
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("websocket accept")
		return
	}
	defer c.CloseNow()
	c.SetReadLimit(wsReadLimit)

	ctx, cancel := context.WithTimeout(r.Context(), wsSessionTimeout)
	defer cancel()

	sess := &wsSession{srv: s, conn: c, userID: userID, anonID: anonID, log: hlog.FromRequest(r)}
	err = sess.serve(ctx, rate.NewLimiter(rate.Every(100*time.Millisecond), 10))

	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		c.Close(websocket.StatusNormalClosure, "")
	default:
		sess.log.Debug().Err(err).Msg("websocket session ended")
	}
}

// originPatterns allows the configured client origin besides same-origin requests.
func (s *Server) originPatterns() []string {
	u, err := url.Parse(s.cfg.ClientOrigin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

func (ws *wsSession) serve(ctx context.Context, l *rate.Limiter) error {
	for {
		if err := l.Wait(ctx); err != nil {
			return err
		}
		var msg wsMsg
		if err := wsjson.Read(ctx, ws.conn, &msg); err != nil {
			return err
		}
		reply := ws.handle(ctx, msg)
		if err := ws.write(ctx, reply); err != nil {
			return err
		}
	}
}

func (ws *wsSession) handle(ctx context.Context, msg wsMsg) wsReply {
	switch msg.Type {
	case "start":
		if msg.Low == nil || msg.High == nil {
			return wsError("low_and_high_required")
		}
		g, err := ws.srv.startGame(ctx, *msg.Low, *msg.High, msg.MaxGuesses, ws.userID, ws.anonID)
		if err != nil {
			return ws.gameError(err)
		}
		ws.gameID = g.ID
		return wsReply{Type: "guess", gameView: viewOf(g)}

	case "resume":
		g, err := ws.srv.loadOwned(ctx, msg.GameID, ws.userID, ws.anonID)
		if err != nil {
			return ws.gameError(err)
		}
		ws.gameID = g.ID
		return wsReply{Type: "guess", gameView: viewOf(g)}

	case "feedback":
		if ws.gameID == "" {
			return wsError("no_game")
		}
		fb, err := game.ParseFeedback(msg.Answer)
		if err != nil {
			return wsError("invalid_feedback")
		}
		g, err := ws.srv.applyFeedback(ctx, ws.gameID, ws.userID, ws.anonID, fb)
		if err != nil {
			return ws.gameError(err)
		}
		return wsReply{Type: "guess", gameView: viewOf(g)}
	}
	return wsError("unknown_type")
}

func (ws *wsSession) gameError(err error) wsReply {
	switch {
	case errors.Is(err, game.ErrInvalidRange):
		return wsError("invalid_range")
	case errors.Is(err, errRangeTooLarge):
		return wsError("range_too_large")
	case errors.Is(err, store.ErrNotFound):
		return wsError("not_found")
	case errors.Is(err, game.ErrFinished):
		return wsError("game_finished")
	}
	ws.log.Error().Err(err).Str("gameId", ws.gameID).Msg("websocket game request failed")
	return wsError("internal_error")
}

func (ws *wsSession) write(ctx context.Context, reply wsReply) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws.conn, reply)
}

func wsError(msg string) wsReply {
	return wsReply{Type: "error", Error: msg}
}
