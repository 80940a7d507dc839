// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance

import "time"

const (
	bitsPerByte   = 8
	bytesPerMebi  = 1 << 20
	bytesPerGibi  = 1 << 30
	percentFactor = 100
)

// CPULoadPercent returns the share of non-idle time between two readings of the same CPU slot.
// The result is in [0, 100]; no elapsed time (or a reset that zeroes every field) yields 0.
func CPULoadPercent(previous, current CPUStats) float64 {
	delta, _ := CalculateCPUDelta(previous, current)
	total := delta.Total()
	if total == 0 {
		return 0
	}
	return float64(total-delta.Idle) / float64(total) * percentFactor
}

// CPULoadPercents computes the load of every slot of two equally sized snapshots.
// The aggregate is returned separately from the per-CPU values.
func CPULoadPercents(previous, current CPUSnapshot) (total float64, perCPU []float64) {
	n := min(len(previous), len(current))
	if n == 0 {
		return 0, nil
	}

	total = CPULoadPercent(previous[0], current[0])
	perCPU = make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		perCPU = append(perCPU, CPULoadPercent(previous[i], current[i]))
	}
	return total, perCPU
}

// NetworkRate returns the RX and TX throughput in bytes per second over elapsed.
func NetworkRate(previous, current NetworkCounters, elapsed time.Duration) (rx, tx float64) {
	if elapsed <= 0 {
		return 0, 0
	}
	delta, _ := CalculateNetworkDelta(previous, current)
	seconds := elapsed.Seconds()
	return float64(delta.RxBytes) / seconds, float64(delta.TxBytes) / seconds
}

// BytesPerSecToMbps converts bytes per second to megabits per second (binary mega).
func BytesPerSecToMbps(bytesPerSec float64) float64 {
	return bytesPerSec * bitsPerByte / bytesPerMebi
}

// BytesToGB converts a byte count to gigabytes (binary giga).
func BytesToGB(bytes uint64) float64 {
	return float64(bytes) / bytesPerGibi
}
