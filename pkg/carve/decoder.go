/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: decoder.go
Description: Record decoding. DecodeExact performs one strict structural decode of a
serialized file descriptor. DecodeRecord compensates for boundary estimation error by
retrying at decreasing lengths until a named record decodes.
*/

package carve

import (
	"fmt"

	"github.com/kleascm/protocarve/pkg/schema"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// DecodeExact decodes all of b as a file descriptor. Records without a name
// yield ErrUnnamedRecord.
func DecodeExact(b []byte) (*schema.Record, error) {
	fd := &descriptorpb.FileDescriptorProto{}
	if err := proto.Unmarshal(b, fd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructuralDecode, err)
	}

	rec := schema.FromDescriptor(fd)
	if !rec.Valid() {
		return nil, ErrUnnamedRecord
	}
	return rec, nil
}

// DecodeRecord tries the first k bytes of b for k from hint down to 1 and
// returns the first named record together with k.
// Lengths above hint are never tried.
func DecodeRecord(b []byte, hint int) (*schema.Record, int, error) {
	if hint > len(b) {
		hint = len(b)
	}
	for k := hint; k >= 1; k-- {
		rec, err := DecodeExact(b[:k])
		if err == nil {
			return rec, k, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: no named record within %d bytes", ErrStructuralDecode, hint)
}
