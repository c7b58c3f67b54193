/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: compressed.go
Description: Carver for descriptors embedded as compressed streams. Every signature
occurrence of an enabled format is decompressed and the complete output is decoded
once. After a good stream scanning resumes right behind the bytes the stream really
used; after a bad one it resumes one byte past the signature.
*/

package carve

import (
	"bytes"
	"iter"

	"github.com/sirupsen/logrus"
)

// CompressedCarver scans for compressed streams holding descriptors.
type CompressedCarver struct {
	formats []StreamFormat
	limits  Limits
	logger  logrus.FieldLogger
}

// NewCompressedCarver creates a carver for the given formats. A nil logger
// discards output.
func NewCompressedCarver(formats []StreamFormat, limits Limits, logger logrus.FieldLogger) *CompressedCarver {
	if limits.ChunkSize <= 0 {
		limits.ChunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &CompressedCarver{formats: formats, limits: limits, logger: logger}
}

// Scan lazily yields every named record found inside compressed streams in blob.
func (c *CompressedCarver) Scan(blob []byte, stats *Stats) iter.Seq[Match] {
	stats = orDiscard(stats)
	return func(yield func(Match) bool) {
		// next signature offset per format, -1 once a format is exhausted
		next := make([]int, len(c.formats))
		for i := range next {
			next[i] = -2
		}

		cursor := 0
		for cursor < len(blob) {
			idx, pos := c.earliest(blob, cursor, next)
			if idx < 0 {
				return
			}
			stats.Signatures++
			format := c.formats[idx]

			m, consumed, err := c.carveStream(blob, pos, format)
			if err != nil {
				cursor = pos + 1
				c.reject(stats, pos, format, err)
				continue
			}
			cursor = pos + max(consumed, 1)
			if m.Record == nil {
				stats.DecodeFailures++
				continue
			}

			stats.Records++
			if !yield(m) {
				return
			}
		}
	}
}

// earliest returns the format index and offset of the first signature at or
// after from. Cached offsets still ahead of from are reused.
func (c *CompressedCarver) earliest(blob []byte, from int, next []int) (int, int) {
	best, bestPos := -1, -1
	for i, f := range c.formats {
		if next[i] == -1 {
			continue
		}
		if next[i] < from {
			next[i] = nextSignature(blob, from, f.Signatures())
			if next[i] < 0 {
				continue
			}
		}
		if best < 0 || next[i] < bestPos {
			best, bestPos = i, next[i]
		}
	}
	return best, bestPos
}

// nextSignature returns the smallest offset at or after from where any of
// sigs begins, or -1.
func nextSignature(blob []byte, from int, sigs [][]byte) int {
	found := -1
	for _, sig := range sigs {
		i := bytes.Index(blob[from:], sig)
		if i < 0 {
			continue
		}
		if found < 0 || from+i < found {
			found = from + i
		}
	}
	return found
}

// carveStream decompresses the stream at pos and decodes its output. A stream
// that decompresses but holds no named record returns a zero Match and no
// error, so scanning still skips the stream.
func (c *CompressedCarver) carveStream(blob []byte, pos int, format StreamFormat) (Match, int, error) {
	out, consumed, err := format.Decompress(blob[pos:], c.limits)
	if err != nil {
		return Match{}, 0, err
	}

	rec, err := DecodeExact(out)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"offset": pos,
			"source": format.Name(),
			"size":   len(out),
		}).Debug("Decompressed stream is not a named record")
		return Match{}, consumed, nil
	}

	return Match{
		Record: rec,
		Offset: pos,
		Length: consumed,
		Source: format.Name(),
		Raw:    out,
	}, consumed, nil
}

func (c *CompressedCarver) reject(stats *Stats, pos int, format StreamFormat, err error) {
	stats.DecompressFailures++
	c.logger.WithFields(logrus.Fields{
		"offset": pos,
		"source": format.Name(),
		"reason": err.Error(),
	}).Debug("Candidate rejected")
}
