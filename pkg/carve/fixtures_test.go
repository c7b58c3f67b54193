/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fixtures_test.go
Description: Shared fixtures for the carve tests: deterministic filler, descriptor
builders and compressors for every supported stream format.
*/

package carve

import (
	"bytes"
	"fmt"
	"iter"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// filler returns n pseudo-random bytes that contain no marker dot and no
// stream signature lead byte. The first byte is always zero so a record
// placed directly before filler ends its boundary walk exactly.
func filler(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	for i, c := range b {
		switch c {
		case '.', 0x1f, 0x78, 0x28, 0x04, 0xff:
			b[i] = 0
		}
	}
	if n > 0 {
		b[0] = 0
	}
	return b
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// sampleDescriptor builds a record that exercises every part of the model.
func sampleDescriptor(name string) *descriptorpb.FileDescriptorProto {
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(name),
		Package:    proto.String("carve.sample"),
		Dependency: []string{"base/types.proto"},
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Item"),
			NestedType: []*descriptorpb.DescriptorProto{{
				Name: proto.String("Tag"),
				Field: []*descriptorpb.FieldDescriptorProto{{
					Name:   proto.String("label"),
					Number: proto.Int32(1),
					Label:  optional,
					Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
				}},
			}},
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:         proto.String("title"),
					Number:       proto.Int32(1),
					Label:        optional,
					Type:         descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					DefaultValue: proto.String("untitled"),
				},
				{
					Name:     proto.String("tags"),
					Number:   proto.Int32(2),
					Label:    repeated,
					Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName: proto.String(".carve.sample.Item.Tag"),
				},
				{
					Name:         proto.String("kind"),
					Number:       proto.Int32(3),
					Label:        optional,
					Type:         descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(),
					TypeName:     proto.String(".carve.sample.Kind"),
					DefaultValue: proto.String("PLAIN"),
				},
			},
			ExtensionRange: []*descriptorpb.DescriptorProto_ExtensionRange{
				{Start: proto.Int32(100), End: proto.Int32(1 << 29)},
			},
		}},
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("Kind"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("PLAIN"), Number: proto.Int32(0)},
				{Name: proto.String("FANCY"), Number: proto.Int32(1)},
			},
		}},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("Store"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("Fetch"),
				InputType:  proto.String(".carve.sample.Item"),
				OutputType: proto.String(".carve.sample.Item"),
			}},
		}},
	}
}

// packedDescriptor builds a highly repetitive record so every compressor
// emits real compressed blocks rather than stored literals.
func packedDescriptor(name string) *descriptorpb.FileDescriptorProto {
	msg := &descriptorpb.DescriptorProto{Name: proto.String("Reading")}
	for i := 0; i < 24; i++ {
		msg.Field = append(msg.Field, &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(fmt.Sprintf("sample_value_%02d", i)),
			Number: proto.Int32(int32(i + 1)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
			Type:   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE.Enum(),
		})
	}
	return &descriptorpb.FileDescriptorProto{
		Name:        proto.String(name),
		Package:     proto.String("telemetry.readings"),
		MessageType: []*descriptorpb.DescriptorProto{msg},
	}
}

func marshal(t *testing.T, fd *descriptorpb.FileDescriptorProto) []byte {
	t.Helper()
	b, err := proto.Marshal(fd)
	require.NoError(t, err)
	return b
}

// compress encodes data as a single stream of the named format.
func compress(t *testing.T, format string, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	switch format {
	case "gzip":
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "zlib":
		w := zlib.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "zstd":
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		defer enc.Close()
		return enc.EncodeAll(data, nil)
	case "lz4":
		w := lz4.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		t.Fatalf("unknown format %q", format)
	}
	return buf.Bytes()
}

func collect(seq iter.Seq[Match]) []Match {
	var out []Match
	for m := range seq {
		out = append(out, m)
	}
	return out
}
