// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package stdout

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report"
)

// FormatText renders a report as the human-readable block printed once per interval.
// Sections missing from the report are omitted; the block always ends with a blank line.
func FormatText(r report.Report) []byte {
	var buf bytes.Buffer

	if r.CPU != nil {
		fmt.Fprintf(&buf, "Total CPU Load: %.2f%%\n", r.CPU.TotalPercent)
		for i, load := range r.CPU.PerCPUPercent {
			fmt.Fprintf(&buf, "CPU %d Load: %.2f%%\n", i, load)
		}
	}

	if r.Disk != nil {
		fmt.Fprintf(&buf, "Total Disk Space: %.2f GB | Free Disk Space: %.2f GB\n",
			r.Disk.TotalGB(), r.Disk.FreeGB())
	}

	if r.Network != nil {
		fmt.Fprintf(&buf, "Network Interface: %s | RX Speed: %.2f Mb/s | TX Speed: %.2f Mb/s\n",
			r.Network.Interface, r.Network.RxMbps, r.Network.TxMbps)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(&buf, "Warning: %s\n", warning)
	}

	buf.WriteByte('\n')
	return buf.Bytes()
}

// FormatJSON renders a report as a single newline-terminated JSON object.
func FormatJSON(r report.Report) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}
