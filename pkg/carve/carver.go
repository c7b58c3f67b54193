/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: carver.go
Description: Combined carver. Runs the uncompressed and compressed discovery paths over
the same blob, raw results first, and optionally drops records whose serialized bytes
were already yielded during the scan.
*/

package carve

import (
	"fmt"
	"iter"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

// Carver runs every enabled discovery path.
type Carver struct {
	raw        *UncompressedCarver
	compressed *CompressedCarver
	dedupe     bool
	logger     logrus.FieldLogger
}

// NewCarver builds a carver from cfg. A nil logger discards output.
func NewCarver(cfg Config, logger logrus.FieldLogger) (*Carver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid carve configuration: %w", err)
	}
	if logger == nil {
		logger = discardLogger()
	}

	c := &Carver{dedupe: cfg.Dedupe, logger: logger}
	if cfg.Uncompressed {
		c.raw = NewUncompressedCarver(cfg.MaxBacktrack, logger)
	}
	if cfg.Compressed {
		formats := make([]StreamFormat, 0, len(cfg.Formats))
		for _, name := range cfg.Formats {
			f, err := FormatByName(name)
			if err != nil {
				return nil, err
			}
			formats = append(formats, f)
		}
		c.compressed = NewCompressedCarver(formats, Limits{
			ChunkSize: cfg.ChunkSize,
			MaxOutput: cfg.MaxDecompressedSize,
		}, logger)
	}
	return c, nil
}

// Scan lazily yields records from both discovery paths. Records counts every
// decoded record; Duplicates counts the ones suppressed by deduplication.
func (c *Carver) Scan(blob []byte, stats *Stats) iter.Seq[Match] {
	stats = orDiscard(stats)
	return func(yield func(Match) bool) {
		var seen map[uint64]struct{}
		if c.dedupe {
			seen = make(map[uint64]struct{})
		}

		emit := func(m Match) bool {
			if seen != nil {
				sum := xxhash.Sum64(m.Raw)
				if _, dup := seen[sum]; dup {
					stats.Duplicates++
					c.logger.WithFields(logrus.Fields{
						"name":   m.Record.Name,
						"offset": m.Offset,
						"source": m.Source,
					}).Debug("Duplicate record suppressed")
					return true
				}
				seen[sum] = struct{}{}
			}
			return yield(m)
		}

		if c.raw != nil {
			for m := range c.raw.Scan(blob, stats) {
				if !emit(m) {
					return
				}
			}
		}
		if c.compressed != nil {
			for m := range c.compressed.Scan(blob, stats) {
				if !emit(m) {
					return
				}
			}
		}
	}
}
