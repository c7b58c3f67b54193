/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logging_test.go
Description: Tests for the logging system. Tests configuration validation, formatting,
file output and log retention.
*/

package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/kleascm/protocarve/pkg/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerConfigValidate tests configuration validation
func TestLoggerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultLoggerConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *LoggerConfig)
	}{
		{"unknown format", func(c *LoggerConfig) { c.Format = "xml" }},
		{"unknown level", func(c *LoggerConfig) { c.Level = "trace" }},
		{"no retention with directory", func(c *LoggerConfig) { c.OutputDir, c.MaxFiles = "logs", 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultLoggerConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	_, err := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "xml"})
	assert.Error(t, err)
}

// TestLoggerConsoleOutput tests that entries reach the console writer
func TestLoggerConsoleOutput(t *testing.T) {
	var console bytes.Buffer
	config := DefaultLoggerConfig()
	config.Timestamp = false
	config.Console = &console

	logger, err := NewLogger(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug("Hidden message", nil)
	logger.Info("Visible message", map[string]interface{}{"key": "value"})

	out := console.String()
	assert.NotContains(t, out, "Hidden message")
	assert.Contains(t, out, "INFO Visible message key=value")
	assert.Empty(t, logger.FilePath())
}

// TestLoggerJSONFormat tests structured JSON output
func TestLoggerJSONFormat(t *testing.T) {
	var console bytes.Buffer
	config := DefaultLoggerConfig()
	config.Format = LogFormatJSON
	config.Console = &console

	logger, err := NewLogger(config)
	require.NoError(t, err)

	rec := &schema.Record{Name: "shop/item.proto"}
	logger.LogRecord(carve.Match{Record: rec, Offset: 32, Length: 90, Source: carve.SourceRaw}, nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(console.Bytes(), &entry))
	assert.Equal(t, "Record recovered", entry["msg"])
	assert.Equal(t, "shop/item.proto", entry["name"])
	assert.Equal(t, float64(32), entry["offset"])
	assert.Equal(t, "raw", entry["source"])
}

// TestLoggerFileOutput tests that a log file is written next to the console
func TestLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	config := DefaultLoggerConfig()
	config.OutputDir = dir
	config.Console = &console

	logger, err := NewLogger(config)
	require.NoError(t, err)

	path := logger.FilePath()
	assert.True(t, strings.HasPrefix(filepath.Base(path), logFilePrefix))

	logger.LogStats("firmware.bin", carve.Stats{Markers: 3, Records: 2, PathRejected: 1}, time.Second, nil)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[STATS] Scan statistics")
	assert.Contains(t, string(data), "records=2")
	assert.Contains(t, console.String(), "Scan statistics")

	// entries after Close only reach the console
	logger.Info("After close", nil)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "After close")
	assert.Contains(t, console.String(), "After close")
}

// TestCarveFormatter tests prefixes and field formatting
func TestCarveFormatter(t *testing.T) {
	formatter := &CarveFormatter{}

	tests := []struct {
		message string
		fields  logrus.Fields
		want    string
	}{
		{
			"Record recovered",
			logrus.Fields{"offset": 255, "name": "a.proto"},
			"INFO [RECORD] Record recovered name=a.proto offset=0xff\n",
		},
		{
			"Candidate rejected",
			logrus.Fields{"source": "raw", "reason": "bad path", "offset": 16},
			"INFO [REJECT] Candidate rejected offset=0x10 reason=bad path source=raw\n",
		},
		{
			"Engine started",
			logrus.Fields{"run_id": "0123456789abcdef"},
			"INFO [ENGINE] Engine started run_id=01234567\n",
		},
		{
			"Something else",
			logrus.Fields{"elapsed": 1500 * time.Millisecond, "raw": []byte{0xde, 0xad}},
			"INFO Something else elapsed=1.5s raw=dead\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			entry := &logrus.Entry{
				Logger:  logrus.New(),
				Level:   logrus.InfoLevel,
				Message: tt.message,
				Data:    tt.fields,
			}
			out, err := formatter.Format(entry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

// TestCustomFormatterColors tests ANSI coloring of the level
func TestCustomFormatterColors(t *testing.T) {
	formatter := &CustomFormatter{Colors: true}
	out, err := formatter.Format(&logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.ErrorLevel,
		Message: "failed",
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "\033[31mERROR\033[0m")
}

// writeLog creates a log file with the given age
func writeLog(t *testing.T, dir string, i int, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("%s%02d.log", logFilePrefix, i))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("entry\n", 10)), 0644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

// TestCleanupOldLogs tests pruning beyond the retention limit
func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		paths = append(paths, writeLog(t, dir, i, time.Duration(5-i)*time.Hour))
	}
	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0644))

	manager := NewLogManager(dir, 3, false)
	require.NoError(t, manager.CleanupOldLogs(paths[4]))

	for i, path := range paths {
		_, err := os.Stat(path)
		if i < 2 {
			assert.True(t, os.IsNotExist(err), "oldest file %d should be removed", i)
		} else {
			assert.NoError(t, err, "file %d should be kept", i)
		}
	}
	assert.FileExists(t, unrelated)
}

// TestCleanupOldLogsCompress tests compression of finished log files
func TestCleanupOldLogsCompress(t *testing.T) {
	dir := t.TempDir()
	old := writeLog(t, dir, 0, 2*time.Hour)
	current := writeLog(t, dir, 1, 0)

	manager := NewLogManager(dir, 10, true)
	require.NoError(t, manager.CleanupOldLogs(current))

	assert.NoFileExists(t, old)
	assert.FileExists(t, old+".gz")
	assert.FileExists(t, current)

	stats, err := manager.GetLogStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.CompressedFiles)
	assert.Equal(t, 1, stats.UncompressedFiles)
	assert.Positive(t, stats.TotalSize)
}
