/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stream.go
Description: Compressed stream formats recognised by the compressed carver. Deflate
based formats are decompressed incrementally in fixed-size input chunks and report
exactly how many input bytes the stream occupied, so bytes buffered past the end of
the stream stay scannable. Frame based formats (zstd, lz4) are sized by walking their
block headers first and then decoded from exactly that span.
*/

package carve

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Limits bound a single decompression.
type Limits struct {
	ChunkSize int // input bytes fed per step
	MaxOutput int // 0 means unlimited
}

// StreamFormat recognises and decodes one kind of compressed stream.
type StreamFormat interface {
	// Name identifies the format in configuration and reports.
	Name() string

	// Signatures returns the byte patterns a stream of this format starts with.
	Signatures() [][]byte

	// Decompress decodes the stream at the start of data and returns the
	// output together with the number of input bytes the stream occupied.
	Decompress(data []byte, lim Limits) ([]byte, int, error)
}

var builtinFormats = map[string]StreamFormat{
	"gzip": gzipFormat{},
	"zlib": zlibFormat{},
	"zstd": zstdFormat{},
	"lz4":  lz4Format{},
}

// FormatByName returns the built-in format with the given name.
func FormatByName(name string) (StreamFormat, error) {
	if f, ok := builtinFormats[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// FormatNames returns the names of all built-in formats, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(builtinFormats))
	for name := range builtinFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// chunkReader hands out data in pieces of at most size bytes and remembers
// how much has been handed out.
type chunkReader struct {
	data []byte
	off  int
	size int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	n := min(len(p), r.size, len(r.data)-r.off)
	copy(p, r.data[r.off:r.off+n])
	r.off += n
	return n, nil
}

// openFunc wraps a buffered source in a decompressor.
type openFunc func(src *bufio.Reader) (io.ReadCloser, error)

// streamDecompress runs a decompressor over data in lim.ChunkSize steps until
// it signals end of stream. The returned length excludes whatever the input
// buffer still held when the stream ended.
func streamDecompress(data []byte, lim Limits, open openFunc) ([]byte, int, error) {
	chunk := lim.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	src := &chunkReader{data: data, size: chunk}
	buffered := bufio.NewReaderSize(src, chunk)

	zr, err := open(buffered)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer zr.Close()

	var out bytes.Buffer
	buf := make([]byte, chunk)
	for {
		n, err := zr.Read(buf)
		out.Write(buf[:n])
		if lim.MaxOutput > 0 && out.Len() > lim.MaxOutput {
			return nil, 0, ErrOutputTooLarge
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
	}

	consumed := src.off - buffered.Buffered()
	return out.Bytes(), consumed, nil
}

// gzipFormat handles single-member gzip streams.
type gzipFormat struct{}

func (gzipFormat) Name() string { return "gzip" }

func (gzipFormat) Signatures() [][]byte {
	return [][]byte{{0x1f, 0x8b, 0x08}}
}

func (gzipFormat) Decompress(data []byte, lim Limits) ([]byte, int, error) {
	return streamDecompress(data, lim, func(src *bufio.Reader) (io.ReadCloser, error) {
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, err
		}
		zr.Multistream(false)
		return zr, nil
	})
}

// zlibFormat handles zlib-wrapped deflate streams without a preset dictionary.
type zlibFormat struct{}

func (zlibFormat) Name() string { return "zlib" }

func (zlibFormat) Signatures() [][]byte {
	return [][]byte{{0x78, 0x01}, {0x78, 0x5e}, {0x78, 0x9c}, {0x78, 0xda}}
}

func (zlibFormat) Decompress(data []byte, lim Limits) ([]byte, int, error) {
	return streamDecompress(data, lim, func(src *bufio.Reader) (io.ReadCloser, error) {
		return zlib.NewReader(src)
	})
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// zstdMaxBlockSize is the largest block a zstd frame may carry.
const zstdMaxBlockSize = 128 << 10

// zstdFormat handles a single zstd frame.
type zstdFormat struct{}

func (zstdFormat) Name() string { return "zstd" }

func (zstdFormat) Signatures() [][]byte {
	return [][]byte{zstdMagic}
}

func (zstdFormat) Decompress(data []byte, lim Limits) ([]byte, int, error) {
	size, err := zstdFrameLength(data)
	if err != nil {
		return nil, 0, err
	}

	out, _, err := streamDecompress(data[:size], lim, func(src *bufio.Reader) (io.ReadCloser, error) {
		opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if lim.MaxOutput > 0 {
			// a window larger than the output cap can only serve oversized output
			opts = append(opts, zstd.WithDecoderMaxWindow(uint64(max(lim.MaxOutput, zstd.MinWindowSize))))
		}
		dec, err := zstd.NewReader(src, opts...)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, size, nil
}

// zstdFrameLength walks the frame header and block headers at the start of b
// and returns the encoded length of the frame.
func zstdFrameLength(b []byte) (int, error) {
	if len(b) < 5 || !bytes.HasPrefix(b, zstdMagic) {
		return 0, fmt.Errorf("%w: zstd frame header truncated", ErrDecompression)
	}

	fhd := b[4]
	if fhd&0x08 != 0 {
		return 0, fmt.Errorf("%w: zstd reserved header bit set", ErrDecompression)
	}
	singleSegment := fhd&0x20 != 0
	hasChecksum := fhd&0x04 != 0

	off := 5
	if !singleSegment {
		off++ // window descriptor
	}
	off += [4]int{0, 1, 2, 4}[fhd&0x03]
	switch fhd >> 6 {
	case 0:
		if singleSegment {
			off++
		}
	case 1:
		off += 2
	case 2:
		off += 4
	case 3:
		off += 8
	}

	for {
		if off+3 > len(b) {
			return 0, fmt.Errorf("%w: zstd block header truncated", ErrDecompression)
		}
		h := uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16
		off += 3

		size := int(h >> 3)
		switch (h >> 1) & 0x03 {
		case 0, 2: // raw, compressed
			if size > zstdMaxBlockSize {
				return 0, fmt.Errorf("%w: zstd block of %d bytes", ErrDecompression, size)
			}
			off += size
		case 1: // rle
			off++
		default:
			return 0, fmt.Errorf("%w: zstd reserved block type", ErrDecompression)
		}
		if off > len(b) {
			return 0, fmt.Errorf("%w: zstd block truncated", ErrDecompression)
		}
		if h&0x01 != 0 {
			break
		}
	}

	if hasChecksum {
		off += 4
		if off > len(b) {
			return 0, fmt.Errorf("%w: zstd checksum truncated", ErrDecompression)
		}
	}
	return off, nil
}

var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

// lz4Format handles a single lz4 frame.
type lz4Format struct{}

func (lz4Format) Name() string { return "lz4" }

func (lz4Format) Signatures() [][]byte {
	return [][]byte{lz4Magic}
}

func (lz4Format) Decompress(data []byte, lim Limits) ([]byte, int, error) {
	size, err := lz4FrameLength(data)
	if err != nil {
		return nil, 0, err
	}

	out, _, err := streamDecompress(data[:size], lim, func(src *bufio.Reader) (io.ReadCloser, error) {
		return io.NopCloser(lz4.NewReader(src)), nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, size, nil
}

// lz4FrameLength walks the frame descriptor and block headers at the start of
// b and returns the encoded length of the frame.
func lz4FrameLength(b []byte) (int, error) {
	if len(b) < 7 || !bytes.HasPrefix(b, lz4Magic) {
		return 0, fmt.Errorf("%w: lz4 frame header truncated", ErrDecompression)
	}

	flg, bd := b[4], b[5]
	if flg>>6 != 0x01 || flg&0x02 != 0 || bd&0x8f != 0 {
		return 0, fmt.Errorf("%w: lz4 frame descriptor invalid", ErrDecompression)
	}
	var maxBlock int
	switch (bd >> 4) & 0x07 {
	case 4:
		maxBlock = 64 << 10
	case 5:
		maxBlock = 256 << 10
	case 6:
		maxBlock = 1 << 20
	case 7:
		maxBlock = 4 << 20
	default:
		return 0, fmt.Errorf("%w: lz4 block size id invalid", ErrDecompression)
	}
	blockChecksum := flg&0x10 != 0
	contentChecksum := flg&0x04 != 0

	off := 6
	if flg&0x08 != 0 {
		off += 8 // content size
	}
	if flg&0x01 != 0 {
		off += 4 // dictionary id
	}
	off++ // header checksum

	for {
		if off+4 > len(b) {
			return 0, fmt.Errorf("%w: lz4 block header truncated", ErrDecompression)
		}
		h := uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
		off += 4
		if h == 0 {
			break // end mark
		}

		size := int(h & 0x7fffffff)
		if size > maxBlock {
			return 0, fmt.Errorf("%w: lz4 block of %d bytes", ErrDecompression, size)
		}
		off += size
		if blockChecksum {
			off += 4
		}
		if off > len(b) {
			return 0, fmt.Errorf("%w: lz4 block truncated", ErrDecompression)
		}
	}

	if contentChecksum {
		off += 4
		if off > len(b) {
			return 0, fmt.Errorf("%w: lz4 content checksum truncated", ErrDecompression)
		}
	}
	return off, nil
}
