/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the protocarve extraction engine. Defines the run
configuration, the thread-safe run statistics and the findings reported for each
recovered record.
*/

package core

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kleascm/protocarve/pkg/carve"
)

// ExtractionConfig contains all configuration parameters for an extraction run
// Supports both command-line flags and configuration files
type ExtractionConfig struct {
	// Output configuration
	OutputDir string `json:"output_dir" mapstructure:"output_dir"` // Directory for schema files (empty = stdout)
	Report    string `json:"report" mapstructure:"report"`         // Scan report path (empty = stdout)

	// Carving configuration
	Carve carve.Config `json:"carve" mapstructure:",squash"`
}

// DefaultExtractionConfig returns a configuration writing schemas to stdout
func DefaultExtractionConfig() *ExtractionConfig {
	return &ExtractionConfig{
		Carve: carve.DefaultConfig(),
	}
}

// Validate checks the ExtractionConfig for invalid or missing values.
func (c *ExtractionConfig) Validate() error {
	if err := c.Carve.Validate(); err != nil {
		return fmt.Errorf("carve: %w", err)
	}
	return nil
}

// ExtractionStats tracks overall run statistics
// Uses atomic operations for thread-safe updates
type ExtractionStats struct {
	Inputs     int64     `json:"inputs"`     // Inputs scanned
	Bytes      int64     `json:"bytes"`      // Total input bytes
	Records    int64     `json:"records"`    // Records reported
	Outputs    int64     `json:"outputs"`    // Schemas written to the sink
	Rejected   int64     `json:"rejected"`   // Candidates abandoned
	Duplicates int64     `json:"duplicates"` // Records suppressed as duplicates
	StartTime  time.Time `json:"start_time"` // When the run started
}

// IncrementInputs atomically counts a scanned input of n bytes
func (s *ExtractionStats) IncrementInputs(n int) {
	atomic.AddInt64(&s.Inputs, 1)
	atomic.AddInt64(&s.Bytes, int64(n))
}

// IncrementRecords atomically increments the record counter
func (s *ExtractionStats) IncrementRecords() {
	atomic.AddInt64(&s.Records, 1)
}

// IncrementOutputs atomically increments the output counter
func (s *ExtractionStats) IncrementOutputs() {
	atomic.AddInt64(&s.Outputs, 1)
}

// AddScan atomically folds the counters of one scan into the run
func (s *ExtractionStats) AddScan(scan carve.Stats) {
	rejected := scan.PathRejected + scan.LengthRejected + scan.DecodeFailures + scan.DecompressFailures
	atomic.AddInt64(&s.Rejected, int64(rejected))
	atomic.AddInt64(&s.Duplicates, int64(scan.Duplicates))
}

// Snapshot returns a consistent copy for reporting
func (s *ExtractionStats) Snapshot() ExtractionStats {
	return ExtractionStats{
		Inputs:     atomic.LoadInt64(&s.Inputs),
		Bytes:      atomic.LoadInt64(&s.Bytes),
		Records:    atomic.LoadInt64(&s.Records),
		Outputs:    atomic.LoadInt64(&s.Outputs),
		Rejected:   atomic.LoadInt64(&s.Rejected),
		Duplicates: atomic.LoadInt64(&s.Duplicates),
		StartTime:  s.StartTime,
	}
}

// Finding describes one recovered record
type Finding struct {
	Input       string `json:"input"`                 // Input the record was found in
	Name        string `json:"name"`                  // Record name (schema file path)
	Package     string `json:"package,omitempty"`     // Declared package, if any
	Offset      int    `json:"offset"`                // Offset of the record or its compressed stream
	Length      int    `json:"length"`                // Bytes the record or stream occupied
	Source      string `json:"source"`                // "raw" or the stream format
	Messages    int    `json:"messages"`              // Top-level message definitions
	Enums       int    `json:"enums"`                 // Top-level enum definitions
	Services    int    `json:"services"`              // Service definitions
	Destination string `json:"destination,omitempty"` // Where the rendered schema went
}

// NewFinding summarizes a match found in input
func NewFinding(input string, m carve.Match) Finding {
	f := Finding{
		Input:    input,
		Name:     m.Record.Name,
		Offset:   m.Offset,
		Length:   m.Length,
		Source:   m.Source,
		Messages: len(m.Record.Messages),
		Enums:    len(m.Record.Enums),
		Services: len(m.Record.Services),
	}
	if pkg, ok := m.Record.Package.Get(); ok {
		f.Package = pkg
	}
	return f
}

// ScanReport is the document written by a scan run
type ScanReport struct {
	RunID     string          `json:"run_id"`
	Generated time.Time       `json:"generated"`
	Inputs    []string        `json:"inputs"`
	Findings  []Finding       `json:"findings"`
	Stats     ExtractionStats `json:"stats"`
}
