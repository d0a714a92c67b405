package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agbru/cpuwatch/internal/distributor"
	"github.com/agbru/cpuwatch/internal/logging"
)

// handleWebSocket pushes one JSON array text frame per snapshot until the
// client disconnects or the distributor closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Debug("websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()
	s.metrics.StreamOpened("ws")

	sub, err := s.dist.Subscribe()
	if err != nil {
		s.closeWebSocket(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.dist.Unsubscribe(sub)

	subField := logging.Uint64("subscription", sub.ID())
	s.logger.Debug("websocket stream opened", subField, logging.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only serve to notice the client going away; control frames are
	// handled by the library.
	conn.SetReadLimit(maxClientMessage)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		snap, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, distributor.ErrClosed) {
				s.closeWebSocket(conn, websocket.CloseGoingAway, "sampler stopped")
			}
			s.logger.Debug("websocket stream closed", subField, logging.Err(err))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snap.Percentages()); err != nil {
			s.logger.Debug("websocket write failed", subField, logging.Err(err))
			return
		}
	}
}

func (s *Server) closeWebSocket(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("websocket close frame", logging.Err(err))
	}
}

// handleSSE streams snapshots as Server-Sent Events. Each event carries the
// snapshot sequence number as its id and the JSON array as data.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := s.dist.Subscribe()
	if err != nil {
		http.Error(w, "sampler stopped", http.StatusServiceUnavailable)
		return
	}
	defer s.dist.Unsubscribe(sub)
	s.metrics.StreamOpened("sse")

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		snap, err := sub.Next(r.Context())
		if err != nil {
			if errors.Is(err, distributor.ErrClosed) {
				_, _ = fmt.Fprint(w, "event: close\ndata: sampler stopped\n\n")
				flusher.Flush()
			}
			s.logger.Debug("sse stream closed", logging.Uint64("subscription", sub.ID()), logging.Err(err))
			return
		}
		data, err := json.Marshal(snap.Percentages())
		if err != nil {
			s.logger.Error("encode snapshot", err)
			return
		}
		if _, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", snap.Seq, data); err != nil {
			return
		}
		flusher.Flush()
	}
}
