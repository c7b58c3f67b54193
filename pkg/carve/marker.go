/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: marker.go
Description: Marker search and name-field recovery for raw descriptors. A raw record
is anchored by the ".proto" suffix of its name field; from there the length prefix is
recovered by backtracking until a varint matches the implied path length.
*/

package carve

import (
	"bytes"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// DefaultMaxBacktrack bounds how far before a marker the length prefix may sit.
const DefaultMaxBacktrack = 150

// maxVarintLen is the longest encoding of a 64-bit varint.
const maxVarintLen = 10

var (
	// Marker is the filename suffix searched for in raw blobs.
	Marker = []byte(".proto")

	// namespaceTail follows the marker in "google.protobuf"-style identifiers.
	namespaceTail = []byte("buf")
)

// Candidate is a marker occurrence whose name field was recovered.
type Candidate struct {
	Marker      int // offset of the marker
	Distance    int // backtrack distance that satisfied the constraints
	VarintStart int // first byte of the length prefix
	PathStart   int // first byte of the path, right after the prefix
	PathLen     int // declared path length, including the marker
	RecordStart int // assumed start of the record: the tag byte before the prefix
}

// FindMarker returns the offset of the next marker at or after from, or -1.
// Occurrences that continue into a namespace-qualified identifier are skipped.
func FindMarker(blob []byte, from int) int {
	if from < 0 {
		from = 0
	}
	for from < len(blob) {
		i := bytes.Index(blob[from:], Marker)
		if i < 0 {
			return -1
		}
		pos := from + i
		if bytes.HasPrefix(blob[pos+len(Marker):], namespaceTail) {
			from = pos + 1
			continue
		}
		return pos
	}
	return -1
}

// pathByte reports whether c may appear in a recovered path. Letters are
// compared case-insensitively.
func pathByte(c byte) bool {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '/', '$', ',', '.', '[', ']', '(', ')':
		return true
	}
	return false
}

// ValidatePath checks that every byte of path is an allowed path character.
func ValidatePath(path []byte) error {
	for i, c := range path {
		if !pathByte(c) {
			return fmt.Errorf("%w: byte 0x%02x at %d", ErrPathValidation, c, i)
		}
	}
	return nil
}

// varintEndingAt decodes the varint whose last byte is b[end-1]. The varint
// extends backwards over every preceding continuation byte.
func varintEndingAt(b []byte, end int) (start int, value uint64, ok bool) {
	if end <= 0 || end > len(b) || b[end-1]&0x80 != 0 {
		return 0, 0, false
	}
	start = end - 1
	for start > 0 && end-start < maxVarintLen && b[start-1]&0x80 != 0 {
		start--
	}
	v, n := protowire.ConsumeVarint(b[start:end])
	if n != end-start {
		return 0, 0, false
	}
	return start, v, true
}

// RecoverNameField backtracks from the marker at markerPos looking for the
// length prefix of the name field. The first distance whose varint equals the
// implied path length and whose path passes ValidatePath wins.
func RecoverNameField(blob []byte, markerPos int, maxBacktrack int) (Candidate, error) {
	if markerPos < 0 || markerPos+len(Marker) > len(blob) {
		return Candidate{}, ErrNoMarker
	}
	markerEnd := markerPos + len(Marker)

	var lastErr error = ErrLengthMismatch
	for d := 0; d < maxBacktrack; d++ {
		pathStart := markerPos - d
		if pathStart <= 0 {
			break
		}
		pathLen := markerEnd - pathStart

		start, value, ok := varintEndingAt(blob, pathStart)
		if !ok || value != uint64(pathLen) {
			continue
		}
		// the tag byte must sit before the prefix
		if start == 0 {
			continue
		}
		if err := ValidatePath(blob[pathStart:markerEnd]); err != nil {
			lastErr = err
			continue
		}

		return Candidate{
			Marker:      markerPos,
			Distance:    d,
			VarintStart: start,
			PathStart:   pathStart,
			PathLen:     pathLen,
			RecordStart: start - 1,
		}, nil
	}

	return Candidate{}, lastErr
}
