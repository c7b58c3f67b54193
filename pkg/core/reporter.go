/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and implementations for protocarve run events.
Reporters are notified of every recovered record and every finished input.
*/

package core

import (
	"sync"
	"time"

	"github.com/kleascm/protocarve/pkg/carve"
)

// Reporter defines the interface for run event hooks.
type Reporter interface {
	// OnRecordRecovered is called after a record was found and emitted.
	OnRecordRecovered(f Finding)
	// OnInputScanned is called once an input has been scanned completely.
	OnInputScanned(input string, stats carve.Stats, duration time.Duration)
}

// FindingCollector keeps every finding and input for a scan report.
type FindingCollector struct {
	mu       sync.Mutex
	findings []Finding
	inputs   []string
}

// NewFindingCollector creates a new FindingCollector.
func NewFindingCollector() *FindingCollector {
	return &FindingCollector{findings: []Finding{}, inputs: []string{}}
}

// OnRecordRecovered stores the finding.
func (c *FindingCollector) OnRecordRecovered(f Finding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findings = append(c.findings, f)
}

// OnInputScanned stores the input name.
func (c *FindingCollector) OnInputScanned(input string, _ carve.Stats, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, input)
}

// Report builds the scan report for a finished run.
func (c *FindingCollector) Report(e *Engine) ScanReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ScanReport{
		RunID:     e.RunID(),
		Generated: time.Now(),
		Inputs:    append([]string(nil), c.inputs...),
		Findings:  append([]Finding(nil), c.findings...),
		Stats:     e.GetStats(),
	}
}
