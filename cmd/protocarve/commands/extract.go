/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extract.go
Description: Extract command implementation for protocarve. Carves every input for
embedded descriptors and writes each recovered schema as .proto text, either
concatenated on stdout or as one file per schema under the output directory.
*/

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/kleascm/protocarve/pkg/core"
	"github.com/spf13/cobra"
)

// RunExtract executes the extraction process
func RunExtract(cmd *cobra.Command, args []string) error {
	config, logger, err := prepare(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	carver, err := carve.NewCarver(config.Carve, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to create carver: %w", err)
	}

	engine, err := core.NewEngine(config, carver, newSink(config, cmd.OutOrStdout()), logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if err := engine.Run(args); err != nil {
		return err
	}

	printSummary(cmd.ErrOrStderr(), engine.GetStats())
	return nil
}

// printSummary prints final run statistics
func printSummary(w io.Writer, stats core.ExtractionStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "📊 Extraction Summary")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "Inputs:     %d (%d bytes)\n", stats.Inputs, stats.Bytes)
	fmt.Fprintf(w, "Records:    %d\n", stats.Records)
	fmt.Fprintf(w, "Written:    %d\n", stats.Outputs)
	fmt.Fprintf(w, "Rejected:   %d\n", stats.Rejected)
	fmt.Fprintf(w, "Duplicates: %d\n", stats.Duplicates)
	fmt.Fprintf(w, "Duration:   %v\n", time.Since(stats.StartTime).Round(time.Millisecond))
}
