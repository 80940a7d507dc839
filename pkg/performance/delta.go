// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance

// CPUDeltaData holds per-field CPU time deltas between two CPUStats.
type CPUDeltaData struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
}

// Total returns the sum of all field deltas.
func (d CPUDeltaData) Total() uint64 {
	return d.User + d.Nice + d.System + d.Idle + d.IOWait + d.IRQ + d.SoftIRQ
}

// NetworkDeltaData holds the byte deltas of an interface between two reads.
type NetworkDeltaData struct {
	RxBytes uint64
	TxBytes uint64
}

// CalculateUint64Delta returns current-previous for a cumulative counter.
//
// A counter that moved backwards (reboot, driver reload, 64-bit wrap) yields a zero delta and
// resetDetected=true so that no negative rate is ever produced.
func CalculateUint64Delta(current, previous uint64) (delta uint64, resetDetected bool) {
	if current < previous {
		return 0, true
	}
	return current - previous, false
}

// CalculateCPUDelta computes per-field deltas between two CPUStats of the same slot.
func CalculateCPUDelta(previous, current CPUStats) (CPUDeltaData, bool) {
	var resetDetected bool

	calculateField := func(currentVal, previousVal uint64) uint64 {
		deltaVal, reset := CalculateUint64Delta(currentVal, previousVal)
		resetDetected = resetDetected || reset
		return deltaVal
	}

	delta := CPUDeltaData{
		User:    calculateField(current.User, previous.User),
		Nice:    calculateField(current.Nice, previous.Nice),
		System:  calculateField(current.System, previous.System),
		Idle:    calculateField(current.Idle, previous.Idle),
		IOWait:  calculateField(current.IOWait, previous.IOWait),
		IRQ:     calculateField(current.IRQ, previous.IRQ),
		SoftIRQ: calculateField(current.SoftIRQ, previous.SoftIRQ),
	}
	return delta, resetDetected
}

// CalculateNetworkDelta computes the RX and TX byte deltas between two reads.
func CalculateNetworkDelta(previous, current NetworkCounters) (NetworkDeltaData, bool) {
	rx, rxReset := CalculateUint64Delta(current.RxBytes, previous.RxBytes)
	tx, txReset := CalculateUint64Delta(current.TxBytes, previous.TxBytes)
	return NetworkDeltaData{RxBytes: rx, TxBytes: tx}, rxReset || txReset
}
