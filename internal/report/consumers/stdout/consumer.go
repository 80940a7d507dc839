// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package stdout

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report"
)

const (
	consumerName = "stdout"
)

// Consumer writes every report to an io.Writer in text or JSON form.
type Consumer struct {
	config Config
	logger logr.Logger

	// Serializes writes so that blocks from concurrent publishers never interleave
	writeMu sync.Mutex

	// Runtime state
	healthy   atomic.Bool
	lastError atomic.Pointer[error]

	// Metrics
	reportsWritten atomic.Uint64
	errorsCount    atomic.Uint64
}

func NewConsumer(config Config, logger logr.Logger) (*Consumer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	consumer := &Consumer{
		config: config,
		logger: logger.WithName("stdout-consumer"),
	}

	consumer.healthy.Store(true)
	return consumer, nil
}

func (c *Consumer) Name() string {
	return consumerName
}

// HandleReport renders and writes a report.
func (c *Consumer) HandleReport(r report.Report) error {
	if err := c.write(r); err != nil {
		c.logger.Error(err, "Failed to write report", "seq", r.Sequence)
		c.errorsCount.Add(1)
		c.lastError.Store(&err)
		c.healthy.Store(false)
		return err
	}

	c.reportsWritten.Add(1)
	c.healthy.Store(true)
	return nil
}

func (c *Consumer) Health() report.ConsumerHealth {
	var lastErr error
	if errPtr := c.lastError.Load(); errPtr != nil {
		lastErr = *errPtr
	}

	return report.ConsumerHealth{
		Healthy:      c.healthy.Load(),
		LastError:    lastErr,
		ReportsCount: c.reportsWritten.Load(),
		ErrorsCount:  c.errorsCount.Load(),
	}
}

func (c *Consumer) write(r report.Report) error {
	var (
		data []byte
		err  error
	)
	if c.config.Format == FormatJSON {
		data, err = FormatJSON(r)
		if err != nil {
			return err
		}
	} else {
		data = FormatText(r)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	n, err := c.config.Writer.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if n < len(data) {
		return fmt.Errorf("failed to write report: %w", io.ErrShortWrite)
	}
	return nil
}

// Compile-time check that Consumer implements report.Consumer
var _ report.Consumer = (*Consumer)(nil)
