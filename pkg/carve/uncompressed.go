/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: uncompressed.go
Description: Carver for raw, uncompressed descriptors. Each marker occurrence is
examined on its own and the cursor always moves exactly one byte past it, so records
that overlap or touch are all found.
*/

package carve

import (
	"errors"
	"iter"

	"github.com/kleascm/protocarve/pkg/schema"
	"github.com/sirupsen/logrus"
)

// Match is one record recovered from a blob.
type Match struct {
	Record *schema.Record
	Offset int    // record start, or signature offset for compressed streams
	Length int    // encoded bytes occupied in the blob
	Source string // SourceRaw or a stream format name
	Raw    []byte // serialized descriptor the record was decoded from
}

// SourceRaw labels records found by the uncompressed carver.
const SourceRaw = "raw"

// UncompressedCarver scans for raw descriptors.
type UncompressedCarver struct {
	maxBacktrack int
	logger       logrus.FieldLogger
}

// NewUncompressedCarver creates a carver. A nil logger discards output.
func NewUncompressedCarver(maxBacktrack int, logger logrus.FieldLogger) *UncompressedCarver {
	if maxBacktrack <= 0 {
		maxBacktrack = DefaultMaxBacktrack
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &UncompressedCarver{maxBacktrack: maxBacktrack, logger: logger}
}

// Scan lazily yields every named record found in blob.
func (c *UncompressedCarver) Scan(blob []byte, stats *Stats) iter.Seq[Match] {
	stats = orDiscard(stats)
	return func(yield func(Match) bool) {
		cursor := 0
		for cursor < len(blob) {
			pos := FindMarker(blob, cursor)
			if pos < 0 {
				return
			}
			stats.Markers++

			m, err := c.CarveAt(blob, pos)
			cursor = pos + 1
			if err != nil {
				c.reject(stats, pos, err)
				continue
			}

			stats.Records++
			if !yield(m) {
				return
			}
		}
	}
}

// CarveAt recovers the record anchored by the marker at pos.
func (c *UncompressedCarver) CarveAt(blob []byte, pos int) (Match, error) {
	cand, err := RecoverNameField(blob, pos, c.maxBacktrack)
	if err != nil {
		return Match{}, err
	}

	region := blob[cand.RecordStart:]
	hint := EstimateBoundary(region)
	rec, n, err := DecodeRecord(region, hint)
	if err != nil {
		return Match{}, err
	}

	return Match{
		Record: rec,
		Offset: cand.RecordStart,
		Length: n,
		Source: SourceRaw,
		Raw:    region[:n],
	}, nil
}

func (c *UncompressedCarver) reject(stats *Stats, pos int, err error) {
	switch {
	case errors.Is(err, ErrPathValidation):
		stats.PathRejected++
	case errors.Is(err, ErrLengthMismatch):
		stats.LengthRejected++
	default:
		stats.DecodeFailures++
	}
	c.logger.WithFields(logrus.Fields{
		"offset": pos,
		"source": SourceRaw,
		"reason": err.Error(),
	}).Debug("Candidate rejected")
}
