/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the protocarve commands. Provides configuration
loading, logging setup and the pieces every command builds from configuration.
*/

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/kleascm/protocarve/pkg/core"
	"github.com/kleascm/protocarve/pkg/interfaces"
	"github.com/kleascm/protocarve/pkg/logging"
	"github.com/kleascm/protocarve/pkg/output"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	// Set environment variable prefix
	viper.SetEnvPrefix("PROTOCARVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

// BuildExtractionConfig assembles and validates the run configuration
func BuildExtractionConfig() (*core.ExtractionConfig, error) {
	config := core.DefaultExtractionConfig()
	config.OutputDir = viper.GetString("output_dir")
	config.Report = viper.GetString("report")

	config.Carve = carve.Config{
		Uncompressed:        viper.GetBool("uncompressed"),
		Compressed:          viper.GetBool("compressed"),
		Formats:             viper.GetStringSlice("formats"),
		MaxBacktrack:        viper.GetInt("max_backtrack"),
		ChunkSize:           viper.GetInt("chunk_size"),
		MaxDecompressedSize: viper.GetInt("max_decompressed_size"),
		Dedupe:              viper.GetBool("dedupe"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// SetupLogging creates the logger described by configuration. Console output
// goes to console.
func SetupLogging(console io.Writer) (*logging.Logger, error) {
	config := logging.DefaultLoggerConfig()
	config.Level = logging.LogLevel(viper.GetString("log_level"))
	config.Format = logging.LogFormat(viper.GetString("log_format"))
	config.OutputDir = viper.GetString("log_dir")
	config.MaxFiles = viper.GetInt("log_max_files")
	config.Compress = viper.GetBool("log_compress")
	config.Console = console

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// newSink returns a directory sink when an output directory is configured,
// otherwise a stream sink on stdout. Written file paths are printed to stdout.
func newSink(config *core.ExtractionConfig, stdout io.Writer) interfaces.RecordSink {
	if config.OutputDir == "" {
		return output.NewStreamSink(stdout)
	}
	return output.NewDirSink(config.OutputDir, stdout)
}

// prepare runs the setup shared by every command that processes inputs
func prepare(console io.Writer) (*core.ExtractionConfig, *logging.Logger, error) {
	if err := LoadConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config, err := BuildExtractionConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := SetupLogging(console)
	if err != nil {
		return nil, nil, err
	}

	return config, logger, nil
}
