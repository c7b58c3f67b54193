/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scan.go
Description: Scan command implementation for protocarve. Carves every input without
rendering and reports each recovered record as a JSON document on stdout or in the
configured report file.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/kleascm/protocarve/pkg/core"
	"github.com/kleascm/protocarve/pkg/utils"
	"github.com/spf13/cobra"
)

// RunScan executes a report-only carving run
func RunScan(cmd *cobra.Command, args []string) error {
	config, logger, err := prepare(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	carver, err := carve.NewCarver(config.Carve, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to create carver: %w", err)
	}

	engine, err := core.NewEngine(config, carver, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	collector := core.NewFindingCollector()
	engine.AddReporter(collector)

	if err := engine.Run(args); err != nil {
		return err
	}

	report := collector.Report(engine)
	if config.Report == "" {
		return utils.WriteReport(cmd.OutOrStdout(), report)
	}

	path, err := utils.WriteReportFile(config.Report, report)
	if err != nil {
		return err
	}
	logger.Info("Scan report written", map[string]interface{}{"path": path, "findings": len(report.Findings)})
	return nil
}
