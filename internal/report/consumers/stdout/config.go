// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package stdout

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Common errors
var (
	ErrInvalidFormat = fmt.Errorf("output format must be '%s' or '%s'", FormatText, FormatJSON)
	ErrNilWriter     = errors.New("writer must not be nil")
)

// Format determines the output format
type Format string

const (
	FormatText Format = "text" // human-readable block per interval
	FormatJSON Format = "json" // one JSON object per line
)

// String returns the string representation of the format
func (f Format) String() string {
	return string(f)
}

// IsValid checks if the format is valid
func (f Format) IsValid() bool {
	return f == FormatText || f == FormatJSON
}

type Config struct {
	// Format determines the output format
	Format Format

	// Writer receives rendered reports
	Writer io.Writer
}

// DefaultConfig returns a text configuration writing to os.Stdout
func DefaultConfig() Config {
	return Config{
		Format: FormatText,
		Writer: os.Stdout,
	}
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if !c.Format.IsValid() {
		return ErrInvalidFormat
	}
	if c.Writer == nil {
		return ErrNilWriter
	}
	return nil
}
