/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utilities.go
Description: Utility commands for protocarve. Provides the stream format listing and
a self-check of configuration, output directory and log directory.
*/

package commands

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/kleascm/protocarve/pkg/logging"
	"github.com/kleascm/protocarve/pkg/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ListFormats lists the compressed stream formats and their signatures
func ListFormats(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "🗜️  protocarve - Compressed Stream Formats")
	fmt.Fprintln(w, "=========================================")
	fmt.Fprintln(w)

	for i, name := range carve.FormatNames() {
		format, err := carve.FormatByName(name)
		if err != nil {
			continue
		}
		sigs := make([]string, 0, len(format.Signatures()))
		for _, sig := range format.Signatures() {
			sigs = append(sigs, hex.EncodeToString(sig))
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
		fmt.Fprintf(w, "   Signatures: %s\n", strings.Join(sigs, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "✨ Use --formats to choose which formats are scanned")
}

// PerformSelfCheck validates configuration and output locations
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "🔍 protocarve - Self Check")
	fmt.Fprintln(w, "==========================")

	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	config, err := BuildExtractionConfig()
	if err != nil {
		fmt.Fprintf(w, "❌ Configuration: %v\n", err)
		return err
	}
	fmt.Fprintf(w, "✅ Configuration: formats=%s max_backtrack=%d chunk_size=%d\n",
		strings.Join(config.Carve.Formats, ","), config.Carve.MaxBacktrack, config.Carve.ChunkSize)

	if config.OutputDir == "" {
		fmt.Fprintln(w, "✅ Output: stdout")
	} else if err := output.NewDirSink(config.OutputDir, nil).CheckWritable(); err != nil {
		fmt.Fprintf(w, "❌ Output directory: %v\n", err)
		return err
	} else {
		fmt.Fprintf(w, "✅ Output directory: %s\n", config.OutputDir)
	}

	if logDir := viper.GetString("log_dir"); logDir != "" {
		if err := output.NewDirSink(logDir, nil).CheckWritable(); err != nil {
			fmt.Fprintf(w, "❌ Log directory: %v\n", err)
			return err
		}
		stats, err := logging.NewLogManager(logDir, viper.GetInt("log_max_files"), false).GetLogStats()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "✅ Log directory: %s (%d files, %d bytes)\n", logDir, stats.TotalFiles, stats.TotalSize)
	}

	fmt.Fprintln(w, "✨ All checks passed")
	return nil
}
