// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package sampler

import "fmt"

// State is the lifecycle phase of a Sampler.
type State int32

const (
	// StatePriming covers the first counter read and the wait that follows it.
	// Nothing is reported while priming because there is no previous snapshot.
	StatePriming State = iota
	// StateSampling is every later iteration: read, diff, report.
	StateSampling
)

func (s State) String() string {
	switch s {
	case StatePriming:
		return "priming"
	case StateSampling:
		return "sampling"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}
