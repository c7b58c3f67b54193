/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters for protocarve. CustomFormatter prints one line per
entry with optional colors and sorted fields; CarveFormatter adds an event prefix and
renders offsets in hex.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter provides structured single-line output
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, "", f.formatValue), nil
}

func (f *CustomFormatter) format(entry *logrus.Entry, prefix string, value func(key string, v interface{}) string) []byte {
	var output strings.Builder

	if f.Timestamp {
		timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
		if f.Colors {
			output.WriteString(fmt.Sprintf("\033[36m%s\033[0m ", timestamp)) // Cyan
		} else {
			output.WriteString(timestamp + " ")
		}
	}

	level := strings.ToUpper(entry.Level.String())
	if f.Colors {
		output.WriteString(fmt.Sprintf("\033[%dm%s\033[0m ", f.getLevelColor(entry.Level), level))
	} else {
		output.WriteString(level + " ")
	}

	if prefix != "" {
		if f.Colors {
			output.WriteString(fmt.Sprintf("\033[35m[%s]\033[0m ", prefix)) // Magenta
		} else {
			output.WriteString("[" + prefix + "] ")
		}
	}

	if f.Caller && entry.HasCaller() {
		caller := fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
		if f.Colors {
			output.WriteString(fmt.Sprintf("\033[33m[%s]\033[0m ", caller)) // Yellow
		} else {
			output.WriteString("[" + caller + "] ")
		}
	}

	output.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data, value))
	}

	output.WriteString("\n")
	return []byte(output.String())
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel:
		return 37 // White
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35 // Magenta
	default:
		return 37
	}
}

// formatFields formats structured fields in key order
func (f *CustomFormatter) formatFields(fields logrus.Fields, value func(key string, v interface{}) string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		formatted := value(key, fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, formatted)) // Blue key, Green value
		} else {
			parts = append(parts, key+"="+formatted)
		}
	}

	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func (f *CustomFormatter) formatValue(_ string, value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("15:04:05.000")
	case string:
		if len(v) > 80 {
			return v[:80] + "..."
		}
		return v
	case []byte:
		if len(v) > 20 {
			return fmt.Sprintf("[%d bytes]", len(v))
		}
		return fmt.Sprintf("%x", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CarveFormatter adds carving-specific prefixes and value formatting
type CarveFormatter struct {
	CustomFormatter
}

// Format formats carving log entries
func (f *CarveFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, f.getCarvePrefix(entry.Message), f.formatCarveValue), nil
}

// getCarvePrefix returns a prefix based on the log message
func (f *CarveFormatter) getCarvePrefix(message string) string {
	switch {
	case strings.Contains(message, "Record recovered"):
		return "RECORD"
	case strings.Contains(message, "Candidate rejected"):
		return "REJECT"
	case strings.Contains(message, "Duplicate record"):
		return "DUP"
	case strings.Contains(message, "Schema written"):
		return "OUTPUT"
	case strings.Contains(message, "Scan statistics"):
		return "STATS"
	case strings.Contains(message, "Engine"):
		return "ENGINE"
	default:
		return ""
	}
}

// formatCarveValue formats carving-specific field values
func (f *CarveFormatter) formatCarveValue(key string, value interface{}) string {
	switch key {
	case "offset":
		if i, ok := value.(int); ok {
			return fmt.Sprintf("0x%x", i)
		}
	case "run_id":
		if s, ok := value.(string); ok && len(s) > 8 {
			return s[:8]
		}
	}

	return f.formatValue(key, value)
}
