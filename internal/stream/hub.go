// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package stream pushes reports to websocket clients and serves the latest report over HTTP.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report"
)

const (
	consumerName = "stream"

	// broadcastBuffer bounds the reports queued between the sampler and the hub goroutine
	broadcastBuffer = 16
)

// Hub owns the set of connected websocket clients and fans reports out to them.
//
// Only the goroutine running Run touches the client set. A client whose send
// buffer is full is dropped rather than allowed to stall the others.
type Hub struct {
	logger logr.Logger

	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	latest Store[report.Report]

	clientCount    atomic.Int64
	reportsHandled atomic.Uint64
	reportsDropped atomic.Uint64
	lastError      atomic.Pointer[error]
}

func NewHub(logger logr.Logger) *Hub {
	return &Hub{
		logger:     logger.WithName("stream-hub"),
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.V(1).Info("Starting stream hub")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			h.logger.V(1).Info("Stream hub shutdown")
			return nil

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.clientCount.Store(int64(len(h.clients)))
			h.logger.V(1).Info("Client registered", "remote", c.remote, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.logger.V(1).Info("Client unregistered", "remote", c.remote, "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.remove(c)
					h.logger.Info("Client send buffer full, dropping", "remote", c.remote)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.clientCount.Store(int64(len(h.clients)))
}

// join hands a new client to the hub goroutine. It returns false once the hub has stopped.
func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// Latest returns the most recently handled report.
func (h *Hub) Latest() (report.Report, bool) {
	return h.latest.Get()
}

func (h *Hub) Name() string {
	return consumerName
}

// HandleReport records r as the latest report and queues it for connected clients.
// It never blocks: if the hub is behind, the broadcast is dropped.
func (h *Hub) HandleReport(r report.Report) error {
	h.latest.Set(r)

	message, err := json.Marshal(r)
	if err != nil {
		err = fmt.Errorf("failed to marshal report: %w", err)
		h.lastError.Store(&err)
		return err
	}

	select {
	case h.broadcast <- message:
		h.reportsHandled.Add(1)
	default:
		h.reportsDropped.Add(1)
		h.logger.V(1).Info("Broadcast queue full, dropping report", "seq", r.Sequence)
	}
	return nil
}

func (h *Hub) Health() report.ConsumerHealth {
	var lastErr error
	if errPtr := h.lastError.Load(); errPtr != nil {
		lastErr = *errPtr
	}

	return report.ConsumerHealth{
		Healthy:      lastErr == nil,
		LastError:    lastErr,
		ReportsCount: h.reportsHandled.Load(),
		ErrorsCount:  h.reportsDropped.Load(),
	}
}

// Compile-time check that Hub implements report.Consumer
var _ report.Consumer = (*Hub)(nil)
