// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

// Consumer represents a report consumer that renders or forwards reports.
// Each consumer receives reports via direct method calls and decides how to handle them.
type Consumer interface {
	// Name returns the unique name of this consumer
	Name() string

	// HandleReport processes a single report (non-blocking)
	// Consumers should handle buffering internally if needed
	HandleReport(report Report) error

	// Health returns the current health status
	Health() ConsumerHealth
}

type ConsumerHealth struct {
	Healthy      bool
	LastError    error
	ReportsCount uint64
	ErrorsCount  uint64
}

// Publisher is implemented by anything reports can be sent to.
type Publisher interface {
	Publish(report Report) error
}
