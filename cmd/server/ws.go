package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prepdesk/progress-engine/internal/curriculum"
	"github.com/prepdesk/progress-engine/internal/progress"
	"github.com/prepdesk/progress-engine/internal/stats"
)

const wsWriteTimeout = 5 * time.Second

// statsHub pushes freshly recomputed statistics to subscribed sockets
// whenever the user's progress changes. Subscribers are keyed by
// (user, course); slow or dead sockets are dropped, never retried.
type statsHub struct {
	stats     *stats.Service
	curricula *curriculum.Loader

	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}
}

func newStatsHub(s *stats.Service, curricula *curriculum.Loader) *statsHub {
	return &statsHub{
		stats:     s,
		curricula: curricula,
		subs:      make(map[string]map[*websocket.Conn]struct{}),
	}
}

func hubKey(userID, courseID string) string {
	return userID + "/" + courseID
}

func (h *statsHub) subscribe(userID, courseID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := hubKey(userID, courseID)
	if h.subs[key] == nil {
		h.subs[key] = make(map[*websocket.Conn]struct{})
	}
	h.subs[key][conn] = struct{}{}
}

func (h *statsHub) unsubscribe(userID, courseID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := hubKey(userID, courseID)
	delete(h.subs[key], conn)
	if len(h.subs[key]) == 0 {
		delete(h.subs, key)
	}
}

func (h *statsHub) conns(userID, courseID string) []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[hubKey(userID, courseID)]
	out := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// progressChanged recomputes the user's statistics and broadcasts them to
// every socket subscribed to that (user, course).
func (h *statsHub) progressChanged(p *progress.UserCourseProgress) {
	conns := h.conns(p.UserID, p.CourseID)
	if len(conns) == 0 || h.stats == nil {
		return
	}

	tree, ok := h.curricula.Tree(p.CourseID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()

	statsByNode, err := h.stats.ForStudent(ctx, tree, p.UserID)
	if err != nil {
		slog.Warn("live statistics recompute failed", "user_id", p.UserID, "error", err)
		return
	}

	for _, conn := range conns {
		if err := wsjson.Write(ctx, conn, statsByNode); err != nil {
			slog.Debug("dropping live statistics subscriber", "error", err)
			conn.Close(websocket.StatusGoingAway, "write failed")
			h.unsubscribe(p.UserID, p.CourseID, conn)
		}
	}
}

func (a *app) handleStatsLive(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	courseID := r.PathValue("courseID")

	if _, ok := a.curricula.Tree(courseID); !ok {
		writeError(w, http.StatusNotFound, "unknown course")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	a.hub.subscribe(userID, courseID, conn)
	defer a.hub.unsubscribe(userID, courseID, conn)

	// Reads are only used to detect the client going away.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}
