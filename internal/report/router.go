// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"
)

var _ Publisher = (*Router)(nil)

var (
	// ErrRouterClosed is returned when attempting to publish to a closed router
	ErrRouterClosed = errors.New("report router is closed")
)

// Router is a simple registry that routes reports to multiple consumers
type Router struct {
	logger    logr.Logger
	mu        sync.RWMutex
	consumers map[string]Consumer
	closed    bool // Set when shutting down
}

// NewRouter creates a new report router
func NewRouter(logger logr.Logger) *Router {
	return &Router{
		logger:    logger.WithName("report-router"),
		consumers: make(map[string]Consumer),
	}
}

// Start blocks until the context is cancelled, then closes the router.
func (r *Router) Start(ctx context.Context) error {
	r.logger.V(1).Info("Starting report router")

	<-ctx.Done()

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for name, health := range r.GetStats().Consumers {
		r.logger.Info("Consumer totals", "consumer", name,
			"reports", health.ReportsCount, "errors", health.ErrorsCount, "healthy", health.Healthy)
	}
	r.logger.V(1).Info("Report router shutdown")
	return nil
}

// RegisterConsumer adds a consumer to receive reports.
func (r *Router) RegisterConsumer(consumer Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := consumer.Name()
	if _, exists := r.consumers[name]; exists {
		return fmt.Errorf("consumer %s already registered", name)
	}

	r.consumers[name] = consumer
	r.logger.V(1).Info("Consumer registered", "consumer", name)
	return nil
}

// UnregisterConsumer removes a consumer
func (r *Router) UnregisterConsumer(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.consumers[name]; !exists {
		return fmt.Errorf("consumer %s not found", name)
	}

	delete(r.consumers, name)
	r.logger.V(1).Info("Consumer unregistered", "consumer", name)
	return nil
}

// Publish delivers a report to all registered consumers in name order.
// A failing consumer does not prevent delivery to the others; the last error is returned.
func (r *Router) Publish(report Report) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRouterClosed
	}

	names := make([]string, 0, len(r.consumers))
	for name := range r.consumers {
		names = append(names, name)
	}
	sort.Strings(names)

	var lastErr error
	for _, name := range names {
		if err := r.consumers[name].HandleReport(report); err != nil {
			r.logger.V(1).Info("Failed to handle report in consumer",
				"consumer", name, "seq", report.Sequence, "error", err)
			lastErr = err
		}
	}

	return lastErr
}

// GetStats returns router statistics
func (r *Router) GetStats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	consumerStats := make(map[string]ConsumerHealth, len(r.consumers))
	for name, consumer := range r.consumers {
		consumerStats[name] = consumer.Health()
	}

	return RouterStats{
		ConsumerCount: len(r.consumers),
		Consumers:     consumerStats,
	}
}

// RouterStats contains metrics about the report router
type RouterStats struct {
	ConsumerCount int
	Consumers     map[string]ConsumerHealth
}
