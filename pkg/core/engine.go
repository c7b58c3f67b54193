/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Extraction engine. Reads each input completely, runs the carver over it,
renders every recovered record and hands the text to the output sink. Candidate
failures stay inside the carver; unreadable inputs and unwritable outputs stop the run.
*/

package core

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/kleascm/protocarve/pkg/interfaces"
	"github.com/kleascm/protocarve/pkg/logging"
	"github.com/kleascm/protocarve/pkg/render"
)

// Engine drives carving over a sequence of inputs
type Engine struct {
	config *ExtractionConfig
	stats  *ExtractionStats
	logger *logging.Logger
	runID  string

	// Core components
	carver    interfaces.Carver
	sink      interfaces.RecordSink // nil = report only
	reporters []Reporter
}

// NewEngine creates a new extraction engine. A nil sink scans without
// rendering; a nil logger logs to stderr with defaults.
func NewEngine(config *ExtractionConfig, carver interfaces.Carver, sink interfaces.RecordSink, logger *logging.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultExtractionConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction configuration: %w", err)
	}
	if carver == nil {
		return nil, fmt.Errorf("carver not set")
	}
	if logger == nil {
		var err error
		if logger, err = logging.NewLogger(nil); err != nil {
			return nil, err
		}
	}

	return &Engine{
		config: config,
		stats:  &ExtractionStats{StartTime: time.Now()},
		logger: logger,
		runID:  uuid.New().String(),
		carver: carver,
		sink:   sink,
	}, nil
}

// AddReporter registers a Reporter for run events.
func (e *Engine) AddReporter(reporter Reporter) {
	e.reporters = append(e.reporters, reporter)
}

// RunID returns the identifier attached to every entry this engine logs
func (e *Engine) RunID() string {
	return e.runID
}

// GetStats returns a snapshot of the run statistics
func (e *Engine) GetStats() ExtractionStats {
	return e.stats.Snapshot()
}

func (e *Engine) fields(kv ...interface{}) map[string]interface{} {
	fields := map[string]interface{}{"run_id": e.runID}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i].(string)] = kv[i+1]
	}
	return fields
}

// Run processes every path in order and stops at the first fatal error
func (e *Engine) Run(paths []string) error {
	e.logger.Info("Engine started", e.fields("inputs", len(paths)))

	for _, path := range paths {
		if err := e.ProcessFile(path); err != nil {
			e.logger.Error("Engine stopped", e.fields("input", path, "error", err.Error()))
			return err
		}
	}

	stats := e.GetStats()
	e.logger.Info("Engine finished", e.fields(
		"records", stats.Records,
		"outputs", stats.Outputs,
		"duration", time.Since(stats.StartTime),
	))
	return nil
}

// ProcessFile reads path fully and carves it
func (e *Engine) ProcessFile(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input %s: %w", path, err)
	}
	return e.ProcessBlob(path, blob)
}

// ProcessBlob carves one in-memory input. Only sink errors are returned.
func (e *Engine) ProcessBlob(input string, blob []byte) error {
	start := time.Now()
	e.stats.IncrementInputs(len(blob))

	var scan carve.Stats
	for m := range e.carver.Scan(blob, &scan) {
		finding := NewFinding(input, m)
		e.stats.IncrementRecords()
		e.logger.LogRecord(m, e.fields("input", input))

		if e.sink != nil {
			destination, err := e.sink.Emit(m.Record.Name, []byte(render.Render(m.Record)))
			if err != nil {
				return fmt.Errorf("failed to emit %s from %s: %w", m.Record.Name, input, err)
			}
			finding.Destination = destination
			e.stats.IncrementOutputs()
			e.logger.LogOutput(m.Record.Name, destination, e.fields())
		}

		for _, reporter := range e.reporters {
			reporter.OnRecordRecovered(finding)
		}
	}

	duration := time.Since(start)
	e.stats.AddScan(scan)
	e.logger.LogStats(input, scan, duration, e.fields("bytes", len(blob)))
	for _, reporter := range e.reporters {
		reporter.OnInputScanned(input, scan, duration)
	}

	return nil
}
