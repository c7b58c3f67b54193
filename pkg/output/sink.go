/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sink.go
Description: Output sinks for rendered schemas. StreamSink concatenates every schema
onto one writer; DirSink writes each schema to <dir>/<record name>, creating parent
directories and keeping every path inside dir.
*/

package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// StreamDestination is reported for schemas written to a stream
const StreamDestination = "-"

// StreamSink writes every schema to a single writer
type StreamSink struct {
	w  io.Writer
	mu sync.Mutex
}

// NewStreamSink creates a sink writing to w
func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

// Emit writes text to the stream
func (s *StreamSink) Emit(name string, text []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(text); err != nil {
		return "", fmt.Errorf("failed to write schema %s: %w", name, err)
	}
	return StreamDestination, nil
}

// DirSink writes one file per schema under a directory
type DirSink struct {
	dir      string
	announce io.Writer
}

// NewDirSink creates a sink rooted at dir. Each written path is printed to
// announce when it is not nil.
func NewDirSink(dir string, announce io.Writer) *DirSink {
	return &DirSink{dir: dir, announce: announce}
}

// Dir returns the output directory
func (s *DirSink) Dir() string {
	return s.dir
}

// PathFor returns the file a record called name is written to. Absolute
// names and names climbing out with ".." are re-rooted inside the directory.
func (s *DirSink) PathFor(name string) string {
	return filepath.Join(s.dir, filepath.Clean(string(filepath.Separator)+filepath.FromSlash(name)))
}

// Emit writes text to the file for name, replacing any earlier content
func (s *DirSink) Emit(name string, text []byte) (string, error) {
	path := s.PathFor(name)
	if path == filepath.Clean(s.dir) {
		return "", fmt.Errorf("record name %q does not name a file", name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, text, 0644); err != nil {
		return "", fmt.Errorf("failed to write schema file: %w", err)
	}

	if s.announce != nil {
		fmt.Fprintln(s.announce, path)
	}
	return path, nil
}

// CheckWritable verifies that the directory can be created and written to
func (s *DirSink) CheckWritable() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	probe, err := os.CreateTemp(s.dir, ".protocarve-check-*")
	if err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
