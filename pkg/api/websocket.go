// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// progressBuffer is the bounded size of one execution's pending-message
// queue. Progress messages are dropped oldest-first once full; terminal
// messages are never dropped (spec §5: "back-pressured with a bounded
// buffer (drop-oldest progress messages, never drop terminal messages)").
const progressBuffer = 32

// progressStats mirrors the running tally in a WebSocket progress message
// (spec §4.8.4).
type progressStats struct {
	Ran     int `json:"ran"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// progressMessage is one JSON envelope sent over an execution's WebSocket
// stream (spec §4.8.4).
type progressMessage struct {
	Stage         string        `json:"stage"`
	Percent       float64       `json:"percent"`
	CurrentEntity string        `json:"current_entity,omitempty"`
	Stats         progressStats `json:"stats"`
	Terminal      bool          `json:"-"`
	Ts            time.Time     `json:"ts"`
}

var terminalStages = map[string]bool{"DONE": true, "CANCELLED": true, "FAILED": true}

// channel is one execution's progress fan-out: a single slice-backed
// queue protected by a mutex, with a condition-style wake via a buffered
// signal channel so handleWebSocket doesn't busy-poll.
type channel struct {
	mu       sync.Mutex
	messages []progressMessage
	closed   bool
	wake     chan struct{}
}

func newChannel() *channel {
	return &channel{wake: make(chan struct{}, 1)}
}

func (c *channel) push(msg progressMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if !msg.Terminal && len(c.messages) >= progressBuffer {
		c.messages = c.messages[1:]
	}
	c.messages = append(c.messages, msg)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *channel) drain() ([]progressMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages
	c.messages = nil
	return msgs, c.closed
}

func (c *channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// hub owns one channel per in-flight execution_id.
type hub struct {
	mu       sync.Mutex
	channels map[string]*channel
}

func newHub() *hub {
	return &hub{channels: map[string]*channel{}}
}

func (h *hub) register(executionID string) *channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := newChannel()
	h.channels[executionID] = c
	return c
}

func (h *hub) unregister(executionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels, executionID)
}

func (h *hub) publish(executionID string, msg progressMessage) {
	h.mu.Lock()
	c := h.channels[executionID]
	h.mu.Unlock()
	if c == nil {
		return
	}
	msg.Terminal = terminalStages[msg.Stage]
	c.push(msg)
	if msg.Terminal {
		c.close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and streams progress messages
// for executionID until a terminal message is sent or the client
// disconnects (spec §4.8.4: "the service closes the socket with a
// terminal message on DONE/CANCELLED/FAILED").
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")

	s.hub.mu.Lock()
	c := s.hub.channels[executionID]
	s.hub.mu.Unlock()
	if c == nil {
		errorJSON(w, http.StatusNotFound, "not_found", "no in-flight execution "+executionID)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("api.websocket.upgrade_failed", "execution_id", executionID, "error", err)
		return
	}
	defer conn.Close()
	apiMetrics.wsConnections.Inc()
	defer apiMetrics.wsConnections.Dec()

	for {
		msgs, closed := c.drain()
		for _, m := range msgs {
			if err := conn.WriteJSON(m); err != nil {
				return
			}
			if m.Terminal {
				return
			}
		}
		if closed {
			return
		}
		select {
		case <-c.wake:
		case <-r.Context().Done():
			return
		}
	}
}
