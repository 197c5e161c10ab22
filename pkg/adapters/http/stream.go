package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/session"
	"github.com/go-chi/chi/v5"
)

// streamBuffer is the per-client backlog before messages are dropped.
const streamBuffer = 16

// ChangeEvent is the SSE payload of one committed layout mutation.
type ChangeEvent struct {
	Version uint64        `json:"version"`
	Action  string        `json:"action"`
	Layout  string        `json:"layout"`
	Data    any           `json:"data"`
	Loading bool          `json:"loading"`
	Error   *domain.Error `json:"error,omitempty"`
}

type subscriber struct {
	ch     chan string
	layout map[string]bool // nil watches every layout
}

// StreamManager fans layout changes of live sessions out to SSE clients.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{} // SessionID -> subscribers
	attached    map[string]func()                   // SessionID -> layout unsubscribe
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[*subscriber]struct{}),
		attached:    make(map[string]func()),
		logger:      logger,
	}
}

// Attach starts forwarding the session's layout changes. Attaching a session
// again (after a restore) replaces the previous source.
func (sm *StreamManager) Attach(sess *session.Session) {
	id := sess.ID
	cancel := sess.Layouts.Subscribe(func(c layout.Change) {
		raw, err := json.Marshal(ChangeEvent{
			Version: c.Version,
			Action:  c.Action,
			Layout:  c.Layout,
			Data:    c.State.Data,
			Loading: c.State.IsLoading,
			Error:   domain.AsError(c.State.Err),
		})
		if err != nil {
			sm.logger.Warn("SSE: failed to encode change", "session_id", id, "err", err)
			return
		}
		sm.Broadcast(id, c.Layout, string(raw))
	})

	sm.mu.Lock()
	prev := sm.attached[id]
	sm.attached[id] = cancel
	sm.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Detach stops forwarding and disconnects the session's clients.
func (sm *StreamManager) Detach(sessionID string) {
	sm.mu.Lock()
	cancel := sm.attached[sessionID]
	delete(sm.attached, sessionID)
	subs := sm.subscribers[sessionID]
	delete(sm.subscribers, sessionID)
	sm.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for sub := range subs {
		close(sub.ch)
	}
}

// Subscribe registers a client. watch restricts events to the named layouts.
func (sm *StreamManager) Subscribe(sessionID string, watch []string) (<-chan string, func()) {
	sub := &subscriber{ch: make(chan string, streamBuffer)}
	if len(watch) > 0 {
		sub.layout = make(map[string]bool, len(watch))
		for _, l := range watch {
			sub.layout[strings.TrimSpace(l)] = true
		}
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[*subscriber]struct{})
	}
	sm.subscribers[sessionID][sub] = struct{}{}

	return sub.ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs, ok := sm.subscribers[sessionID]
		if !ok {
			return
		}
		if _, ok := subs[sub]; !ok {
			return
		}
		delete(subs, sub)
		close(sub.ch)
		if len(subs) == 0 {
			delete(sm.subscribers, sessionID)
		}
	}
}

// Broadcast sends msg to every client of the session watching layoutKey.
func (sm *StreamManager) Broadcast(sessionID, layoutKey, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for sub := range sm.subscribers[sessionID] {
		if sub.layout != nil && !sub.layout[layoutKey] {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles GET /sessions/{session}/events (SSE).
// ?watch=a,b limits the stream to the listed layouts.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if _, err := s.Sessions.Get(id); err != nil {
		s.writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = strings.Split(raw, ",")
	}
	ch, cancel := s.Streams.Subscribe(id, watch)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
