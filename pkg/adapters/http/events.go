package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/elements"
	"github.com/aretw0/canopy/pkg/hooks"
)

// StreamedTags are the actions forwarded to /events subscribers.
var StreamedTags = []string{
	hooks.ActionElementCreated,
	hooks.ActionElementUpdated,
	hooks.ActionElementMoved,
	hooks.ActionElementCloned,
	hooks.ActionElementDestroyed,
	hooks.ActionElementCopied,
	hooks.ActionElementPasted,
	hooks.ActionElementSelected,
	hooks.ActionElementDeselected,
	hooks.ActionDocumentLoaded,
	hooks.ActionDocumentSaved,
}

// Event is one streamed action.
type Event struct {
	Tag       string              `json:"tag"`
	ElementID string              `json:"elementId,omitempty"`
	ParentID  string              `json:"parentId,omitempty"`
	SourceID  string              `json:"sourceId,omitempty"`
	Diff      *domain.ElementDiff `json:"diff,omitempty"`
}

// NewEvent extracts the element id, parent and diff from action arguments.
func NewEvent(tag string, args []any) Event {
	ev := Event{Tag: tag}
	if len(args) == 0 {
		return ev
	}
	switch v := args[0].(type) {
	case *domain.Container:
		ev.ElementID = v.ID()
	case domain.ElementData:
		ev.ElementID = v.ID
	case elements.MoveEvent:
		ev.ElementID = v.Element.ID()
		ev.ParentID = v.ToParentID
	case *domain.Document:
		ev.ElementID = v.ID
	case string:
		ev.ElementID = v
	}
	if len(args) > 1 {
		switch v := args[1].(type) {
		case *domain.ElementDiff:
			ev.Diff = v
		case *domain.Container:
			ev.SourceID = v.ID()
		case string:
			ev.ParentID = v
		}
	}
	return ev
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- Event]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates a manager; a nil logger discards drop warnings.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan<- Event]struct{}),
		logger:      logger,
	}
}

// Attach forwards StreamedTags actions of hm to subscribers.
func (sm *StreamManager) Attach(hm *hooks.Manager) []hooks.Handle {
	handles := make([]hooks.Handle, 0, len(StreamedTags))
	for _, tag := range StreamedTags {
		handles = append(handles, hm.AddAction(tag, func(ctx context.Context, args ...any) error {
			sm.Broadcast(NewEvent(tag, args))
			return nil
		}, hooks.Named("http-events")))
	}
	return handles
}

func (sm *StreamManager) Subscribe() (chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 32)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Len returns the number of subscribers.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

func (sm *StreamManager) Broadcast(ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow client.
			sm.logger.Warn("SSE client buffer full, dropping event", "tag", ev.Tag)
		}
	}
}

// SubscribeEvents handles GET /events (SSE). ?tags=a,b restricts the stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var only map[string]bool
	if v := r.URL.Query().Get("tags"); v != "" {
		only = make(map[string]bool)
		for _, tag := range strings.Split(v, ",") {
			only[strings.TrimSpace(tag)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if only != nil && !only[ev.Tag] {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn("SSE: event encode failed", "tag", ev.Tag, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Tag, data)
			flusher.Flush()
		}
	}
}
