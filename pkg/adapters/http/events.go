package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/lobster/pkg/domain"
)

// allRuns is the subscription key for events of every run.
const allRuns = ""

// StreamManager fans stage events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // RunID ("" for all) -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for runID, or for every run when runID is
// empty. The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(runID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast delivers msg to the listeners of runID and to global listeners.
// Slow listeners lose messages rather than blocking the pipeline.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allRuns}
	if runID != allRuns {
		keys = append(keys, runID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: Client buffer full, dropping message", "run_id", runID)
			}
		}
	}
}

// Hooks publishes every stage event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(ctx context.Context, ev *domain.StageEvent) {
		payload := struct {
			*domain.StageEvent
			Error string `json:"error,omitempty"`
		}{StageEvent: ev}
		if ev.Err != nil {
			payload.Error = ev.Err.Error()
		}
		data, err := json.Marshal(payload)
		if err != nil {
			sm.logger.Debug("SSE: event encode failed", "error", err)
			return
		}
		sm.Broadcast(ev.RunID, string(data))
	}
	return domain.LifecycleHooks{OnStageStart: publish, OnStageEnd: publish, OnHalt: publish}
}

// SubscribeEvents handles the GET /v1/events request (SSE). The optional
// run_id query parameter narrows the stream to one run.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	runID := r.URL.Query().Get("run_id")
	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	s.Logger.Debug("SSE: subscribed", "run_id", runID)
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
