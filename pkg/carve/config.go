/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Carving configuration and per-scan statistics.
*/

package carve

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultChunkSize is the number of input bytes fed to a decompressor per step.
	DefaultChunkSize = 64

	// DefaultMaxDecompressedSize caps the output of a single compressed stream.
	DefaultMaxDecompressedSize = 64 << 20
)

// Config controls which discovery paths run and how they behave.
type Config struct {
	Uncompressed        bool     `json:"uncompressed" mapstructure:"uncompressed"`
	Compressed          bool     `json:"compressed" mapstructure:"compressed"`
	Formats             []string `json:"formats" mapstructure:"formats"`
	MaxBacktrack        int      `json:"max_backtrack" mapstructure:"max_backtrack"`
	ChunkSize           int      `json:"chunk_size" mapstructure:"chunk_size"`
	MaxDecompressedSize int      `json:"max_decompressed_size" mapstructure:"max_decompressed_size"`
	Dedupe              bool     `json:"dedupe" mapstructure:"dedupe"`
}

// DefaultConfig enables both discovery paths with every built-in format.
func DefaultConfig() Config {
	return Config{
		Uncompressed:        true,
		Compressed:          true,
		Formats:             FormatNames(),
		MaxBacktrack:        DefaultMaxBacktrack,
		ChunkSize:           DefaultChunkSize,
		MaxDecompressedSize: DefaultMaxDecompressedSize,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !c.Uncompressed && !c.Compressed {
		return fmt.Errorf("at least one of uncompressed or compressed scanning must be enabled")
	}
	if c.MaxBacktrack <= 0 {
		return fmt.Errorf("max_backtrack must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.MaxDecompressedSize < 0 {
		return fmt.Errorf("max_decompressed_size must not be negative")
	}
	if c.Compressed {
		if len(c.Formats) == 0 {
			return fmt.Errorf("compressed scanning needs at least one format")
		}
		for _, name := range c.Formats {
			if _, err := FormatByName(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats counts what happened during one scan. A nil *Stats is accepted
// everywhere and records nothing.
type Stats struct {
	Markers            int `json:"markers"`
	PathRejected       int `json:"path_rejected"`
	LengthRejected     int `json:"length_rejected"`
	DecodeFailures     int `json:"decode_failures"`
	Signatures         int `json:"signatures"`
	DecompressFailures int `json:"decompress_failures"`
	Records            int `json:"records"`
	Duplicates         int `json:"duplicates"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Markers += other.Markers
	s.PathRejected += other.PathRejected
	s.LengthRejected += other.LengthRejected
	s.DecodeFailures += other.DecodeFailures
	s.Signatures += other.Signatures
	s.DecompressFailures += other.DecompressFailures
	s.Records += other.Records
	s.Duplicates += other.Duplicates
}

// orDiscard absorbs counts when the caller passed nil.
func orDiscard(s *Stats) *Stats {
	if s == nil {
		return &Stats{}
	}
	return s
}

// discardLogger is used when no logger is supplied.
func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
