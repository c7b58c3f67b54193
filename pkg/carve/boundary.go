/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: boundary.go
Description: Boundary estimation for raw descriptors. Walks tag-prefixed entries from
a presumed record start and stops at the first entry that cannot belong to the same
record: an unknown field number, a repeated singular field, an illegal wire type, or
a payload that runs past the buffer.
*/

package carve

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// fileFields is the fixed set of top-level field numbers of a file descriptor.
var fileFields = map[protowire.Number]string{
	1:  "name",
	2:  "package",
	3:  "dependency",
	4:  "message_type",
	5:  "enum_type",
	6:  "service",
	7:  "extension",
	8:  "options",
	9:  "source_code_info",
	10: "public_dependency",
	11: "weak_dependency",
	12: "syntax",
	14: "edition",
}

// singularFields may appear at most once per record; a repeat means the
// next record has begun.
var singularFields = map[protowire.Number]bool{
	1: true,
	2: true,
}

// EstimateBoundary returns the approximate encoded length of the record at the
// start of b. The result is the offset at which the walk stopped.
func EstimateBoundary(b []byte) int {
	seen := make(map[protowire.Number]bool, len(singularFields))
	off := 0

	for off < len(b) {
		num, typ, n := protowire.ConsumeTag(b[off:])
		if n < 0 {
			return off
		}
		if _, ok := fileFields[num]; !ok {
			return off
		}
		if singularFields[num] {
			if seen[num] {
				return off
			}
			seen[num] = true
		}

		next, ok := skipPayload(b, off+n, typ)
		if !ok {
			return off
		}
		off = next
	}

	return off
}

// skipPayload returns the offset just past the payload of an entry of the
// given wire type starting at off.
func skipPayload(b []byte, off int, typ protowire.Type) (int, bool) {
	switch typ {
	case protowire.VarintType:
		_, m := protowire.ConsumeVarint(b[off:])
		if m < 0 {
			return 0, false
		}
		return off + m, true
	case protowire.Fixed64Type:
		if len(b)-off < 8 {
			return 0, false
		}
		return off + 8, true
	case protowire.BytesType:
		l, m := protowire.ConsumeVarint(b[off:])
		if m < 0 {
			return 0, false
		}
		off += m
		if l > uint64(len(b)-off) {
			return 0, false
		}
		return off + int(l), true
	case protowire.StartGroupType, protowire.EndGroupType:
		return off, true
	case protowire.Fixed32Type:
		if len(b)-off < 4 {
			return 0, false
		}
		return off + 4, true
	default:
		return 0, false
	}
}
