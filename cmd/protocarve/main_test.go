/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main_test.go
Description: End-to-end tests for the protocarve command tree. Each test builds a fresh
command, runs it against files in a temporary directory and inspects its output.
*/

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/kleascm/protocarve/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

func descriptor(t *testing.T, name, pkg string) []byte {
	t.Helper()
	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(name),
		Package: proto.String(pkg),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Ping"),
			Field: []*descriptorpb.FieldDescriptorProto{{
				Name:   proto.String("seq"),
				Number: proto.Int32(1),
				Label:  descriptorpb.FieldDescriptorProto_LABEL_REQUIRED.Enum(),
				Type:   descriptorpb.FieldDescriptorProto_TYPE_UINT32.Enum(),
			}},
		}},
	}
	raw, err := proto.Marshal(fd)
	require.NoError(t, err)
	return raw
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// writeImage writes a blob holding one raw and one gzip-compressed descriptor
func writeImage(t *testing.T, dir string) string {
	t.Helper()
	var blob []byte
	blob = append(blob, make([]byte, 48)...)
	blob = append(blob, descriptor(t, "net/ping.proto", "net")...)
	blob = append(blob, make([]byte, 48)...)
	blob = append(blob, gzipped(t, descriptor(t, "net_pong", "net"))...)
	blob = append(blob, make([]byte, 48)...)

	path := filepath.Join(dir, "image.bin")
	require.NoError(t, os.WriteFile(path, blob, 0644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestExtractToStdout tests concatenated schema output
func TestExtractToStdout(t *testing.T) {
	input := writeImage(t, t.TempDir())

	stdout, stderr, err := run(t, "extract", input)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(stdout, "package net;"))
	assert.Contains(t, stdout, "message Ping {\n\trequired uint32 seq = 1;\n}\n")
	assert.Contains(t, stderr, "Record recovered")
	assert.Contains(t, stderr, "Extraction Summary")
}

// TestExtractToDirectory tests per-record files and printed paths
func TestExtractToDirectory(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir)
	out := filepath.Join(dir, "out")

	stdout, _, err := run(t, "extract", "-o", out, input)
	require.NoError(t, err)

	raw := filepath.Join(out, "net", "ping.proto")
	compressed := filepath.Join(out, "net_pong")
	assert.Equal(t, raw+"\n"+compressed+"\n", stdout)
	assert.FileExists(t, raw)
	assert.FileExists(t, compressed)
}

// TestExtractRawOnly tests disabling the compressed path
func TestExtractRawOnly(t *testing.T) {
	input := writeImage(t, t.TempDir())

	stdout, _, err := run(t, "extract", "--compressed=false", input)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(stdout, "package net;"))
}

// TestExtractMissingInput tests that unreadable inputs fail the command
func TestExtractMissingInput(t *testing.T) {
	_, _, err := run(t, "extract", filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)

	_, _, err = run(t, "extract")
	assert.Error(t, err)
}

// TestExtractInvalidConfig tests configuration validation before any work
func TestExtractInvalidConfig(t *testing.T) {
	input := writeImage(t, t.TempDir())

	_, _, err := run(t, "extract", "--formats", "rar", input)
	assert.Error(t, err)

	_, _, err = run(t, "extract", "--uncompressed=false", "--compressed=false", input)
	assert.Error(t, err)
}

// TestExtractConfigFile tests settings read from a configuration file
func TestExtractConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir)
	out := filepath.Join(dir, "from-config")
	config := filepath.Join(dir, "protocarve.yaml")
	require.NoError(t, os.WriteFile(config, []byte("output_dir: "+out+"\ncompressed: false\n"), 0644))

	stdout, _, err := run(t, "extract", "--config", config, input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "net", "ping.proto")+"\n", stdout)
}

// TestDecompile tests rendering a standalone descriptor file
func TestDecompile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ping.pb")
	require.NoError(t, os.WriteFile(path, descriptor(t, "net/ping.proto", "net"), 0644))

	stdout, _, err := run(t, "decompile", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "package net;\n"))

	garbage := filepath.Join(dir, "garbage.pb")
	require.NoError(t, os.WriteFile(garbage, []byte{0xff, 0xff, 0xff}, 0644))
	_, _, err = run(t, "decompile", garbage)
	assert.Error(t, err)
}

// TestScanReport tests the JSON scan report
func TestScanReport(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir)

	stdout, _, err := run(t, "scan", input)
	require.NoError(t, err)

	var report core.ScanReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Findings, 2)
	assert.Equal(t, "net/ping.proto", report.Findings[0].Name)
	assert.Equal(t, "raw", report.Findings[0].Source)
	assert.Equal(t, 48, report.Findings[0].Offset)
	assert.Equal(t, "gzip", report.Findings[1].Source)
	assert.Equal(t, []string{input}, report.Inputs)
	assert.Equal(t, int64(2), report.Stats.Records)

	path := filepath.Join(dir, "reports", "scan.json")
	stdout, _, err = run(t, "scan", "--report", path, input)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.FileExists(t, path)
}

// TestFormatsAndCheck tests the utility commands
func TestFormatsAndCheck(t *testing.T) {
	stdout, _, err := run(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "gzip")
	assert.Contains(t, stdout, "1f8b08")
	assert.Contains(t, stdout, "28b52ffd")

	dir := t.TempDir()
	stdout, _, err = run(t, "check", "-o", filepath.Join(dir, "out"), "--log-dir", filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "All checks passed")

	_, _, err = run(t, "check", "--max-backtrack", "0")
	assert.Error(t, err)
}
