/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for protocarve. Recovers protobuf schema
descriptors embedded in binaries, firmware images and memory dumps and renders them as
.proto source. Flags, environment and an optional configuration file all feed the same
viper keys.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/protocarve/cmd/protocarve/commands"
	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	// Execute root command
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the command tree and binds every flag to viper
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "protocarve",
		Short: "protocarve - Recover protobuf schemas from opaque binaries",
		Long: `protocarve scans arbitrary files for serialized protobuf file descriptors, both
stored as-is and inside gzip, zlib, zstd or lz4 streams, and renders every recovered
descriptor as .proto source.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()

	// Add persistent flags
	flags.String("config", "", "Configuration file path (yaml, toml or json)")
	flags.StringP("output", "o", "", "Directory for schema files (default: stdout)")

	// Add carving flags
	flags.Bool("uncompressed", true, "Scan for descriptors stored as-is")
	flags.Bool("compressed", true, "Scan for descriptors inside compressed streams")
	flags.StringSlice("formats", carve.FormatNames(), "Compressed stream formats to scan")
	flags.Int("max-backtrack", carve.DefaultMaxBacktrack, "Maximum bytes searched backwards from a marker")
	flags.Int("chunk-size", carve.DefaultChunkSize, "Input bytes fed to a decompressor per step")
	flags.Int("max-decompressed-size", carve.DefaultMaxDecompressedSize, "Maximum output of one compressed stream (0 = unlimited)")
	flags.Bool("dedupe", false, "Report byte-identical records only once per input")

	// Add logging-specific flags
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "custom", "Log format (text, json, custom)")
	flags.String("log-dir", "", "Log output directory (default: console only)")
	flags.Int("log-max-files", 10, "Maximum number of log files to keep")
	flags.Bool("log-compress", false, "Compress finished log files")

	// Bind flags to viper
	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("output_dir", flags.Lookup("output"))
	viper.BindPFlag("uncompressed", flags.Lookup("uncompressed"))
	viper.BindPFlag("compressed", flags.Lookup("compressed"))
	viper.BindPFlag("formats", flags.Lookup("formats"))
	viper.BindPFlag("max_backtrack", flags.Lookup("max-backtrack"))
	viper.BindPFlag("chunk_size", flags.Lookup("chunk-size"))
	viper.BindPFlag("max_decompressed_size", flags.Lookup("max-decompressed-size"))
	viper.BindPFlag("dedupe", flags.Lookup("dedupe"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("log_dir", flags.Lookup("log-dir"))
	viper.BindPFlag("log_max_files", flags.Lookup("log-max-files"))
	viper.BindPFlag("log_compress", flags.Lookup("log-compress"))

	// Add extract command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "extract <file>...",
		Short: "Carve schemas out of files and render them",
		Long: `Scan every file for embedded descriptors and write each recovered schema as
.proto source. Without --output all schemas are concatenated on stdout; with it each
schema is written to <output>/<name> and the written path is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunExtract,
	})

	// Add decompile command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "decompile <descriptor>...",
		Short: "Render standalone serialized descriptor files",
		Long: `Render files that each hold exactly one serialized FileDescriptorProto, such as
the output of protoc --descriptor_set_out for a single file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunDecompile,
	})

	// Add scan command
	scanCmd := &cobra.Command{
		Use:   "scan <file>...",
		Short: "Report embedded schemas as JSON without rendering them",
		Long: `Scan every file for embedded descriptors and report the input, offset, source
format, encoded length and name of each recovered record as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunScan,
	}
	scanCmd.Flags().String("report", "", "Report file path (default: stdout)")
	viper.BindPFlag("report", scanCmd.Flags().Lookup("report"))
	rootCmd.AddCommand(scanCmd)

	// Add formats command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List supported compressed stream formats",
		Run:   commands.ListFormats,
	})

	// Add check command for built-in self-checks
	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate configuration and output locations",
		Long: `Validate the configuration and check that the output and log directories can be
created and written. Useful before long batch runs.`,
		RunE: commands.PerformSelfCheck,
	})

	return rootCmd
}
