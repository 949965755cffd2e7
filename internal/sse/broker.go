// Package sse implements a Server-Sent Events broker for decoration and vault updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeDecorations = "decorations.updated"
	TypeNudge       = "view.nudge"
	TypeEdited      = "view.edited"
	TypeVault       = "vault.changed"
	TypeCatalog     = "catalog.refreshed"
)

// Event represents an SSE event to broadcast. Events with a View are only
// delivered to clients watching every view or that view.
type Event struct {
	Type string      `json:"type"`
	View string      `json:"view,omitempty"`
	Data interface{} `json:"data"`
}

type subscribeReq struct {
	ch   chan []byte
	view string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the catalog throttle
// state. Public methods talk to it through channels.
type Broker struct {
	catalogMin time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	catalogCh     chan int
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one catalog.refreshed event
// per throttle interval. A refresh arriving inside the interval is delivered
// when the interval ends.
func NewBroker(catalogThrottle time.Duration) *Broker {
	if catalogThrottle <= 0 {
		catalogThrottle = 2 * time.Second
	}

	b := &Broker{
		catalogMin:    catalogThrottle,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		catalogCh:     make(chan int, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	var (
		lastCatalog time.Time
		pending     = -1
		trailing    *time.Timer
		trailingCh  <-chan time.Time
	)

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for ch, view := range clients {
			if event.View != "" && view != "" && view != event.View {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}
	emitCatalog := func(pages int) {
		lastCatalog = time.Now()
		broadcast(Event{Type: TypeCatalog, Data: map[string]int{"pages": pages}})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = req.view

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case pages := <-b.catalogCh:
			if wait := b.catalogMin - time.Since(lastCatalog); wait > 0 {
				pending = pages
				if trailing == nil {
					trailing = time.NewTimer(wait)
					trailingCh = trailing.C
				}
				continue
			}
			emitCatalog(pages)

		case <-trailingCh:
			trailing, trailingCh = nil, nil
			if pending >= 0 {
				emitCatalog(pending)
				pending = -1
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client and returns its channel. An empty view receives
// events for every view.
func (b *Broker) Subscribe(view string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{ch: ch, view: view}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to matching clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishVaultChange reports a watcher-driven index change.
func (b *Broker) PublishVaultChange(kind, path string) {
	b.Publish(Event{Type: TypeVault, Data: map[string]string{"kind": kind, "path": path}})
}

// PublishCatalogRefreshed reports a catalog swap, throttled.
func (b *Broker) PublishCatalogRefreshed(pages int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.catalogCh <- pages:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events[?view=id]).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query().Get("view"))
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
