/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file management for protocarve. Compresses finished log files when
asked to, prunes the oldest beyond the retention limit and reports what a log
directory holds.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// LogManager applies the retention policy to a log directory
type LogManager struct {
	logDir   string
	maxFiles int
	compress bool
}

// NewLogManager creates a new log manager
func NewLogManager(logDir string, maxFiles int, compress bool) *LogManager {
	return &LogManager{
		logDir:   logDir,
		maxFiles: maxFiles,
		compress: compress,
	}
}

func (lm *LogManager) logFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(lm.logDir, logFilePrefix+"*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}
	return files, nil
}

// CleanupOldLogs compresses finished logs when enabled and removes the
// oldest files beyond the retention limit. The file named current is left
// uncompressed.
func (lm *LogManager) CleanupOldLogs(current string) error {
	files, err := lm.logFiles()
	if err != nil {
		return err
	}

	if lm.compress {
		for _, file := range files {
			if file == current || strings.HasSuffix(file, ".gz") {
				continue
			}
			if err := lm.compressFile(file); err != nil {
				return fmt.Errorf("failed to compress %s: %w", file, err)
			}
		}
		if files, err = lm.logFiles(); err != nil {
			return err
		}
	}

	if len(files) <= lm.maxFiles {
		return nil
	}

	// oldest first
	modTimes := make(map[string]time.Time, len(files))
	for _, file := range files {
		if stat, err := os.Stat(file); err == nil {
			modTimes[file] = stat.ModTime()
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return modTimes[files[i]].Before(modTimes[files[j]])
	})

	for _, file := range files[:len(files)-lm.maxFiles] {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", file, err)
		}
	}

	return nil
}

// compressFile replaces a log file with a gzip copy
func (lm *LogManager) compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	compressed, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer compressed.Close()

	gzipWriter := gzip.NewWriter(compressed)
	if _, err := io.Copy(gzipWriter, source); err != nil {
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		return err
	}

	source.Close()
	return os.Remove(path)
}

// GetLogStats returns statistics about log files
func (lm *LogManager) GetLogStats() (*LogStats, error) {
	files, err := lm.logFiles()
	if err != nil {
		return nil, err
	}

	stats := &LogStats{TotalFiles: len(files)}
	for _, file := range files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}

		stats.TotalSize += stat.Size()
		if stats.OldestFile.IsZero() || stat.ModTime().Before(stats.OldestFile) {
			stats.OldestFile = stat.ModTime()
		}
		if stat.ModTime().After(stats.NewestFile) {
			stats.NewestFile = stat.ModTime()
		}

		if strings.HasSuffix(file, ".gz") {
			stats.CompressedFiles++
		} else {
			stats.UncompressedFiles++
		}
	}

	return stats, nil
}

// LogStats holds statistics about log files
type LogStats struct {
	TotalFiles        int       `json:"total_files"`
	TotalSize         int64     `json:"total_size"`
	CompressedFiles   int       `json:"compressed_files"`
	UncompressedFiles int       `json:"uncompressed_files"`
	OldestFile        time.Time `json:"oldest_file"`
	NewestFile        time.Time `json:"newest_file"`
}
