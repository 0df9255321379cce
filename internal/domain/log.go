package domain

import "time"

// LogLevel represents a log severity level as stored in the search index
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// Priority returns the priority of a log level (higher = more severe)
func (l LogLevel) Priority() int {
	switch l {
	case LogLevelDebug:
		return 0
	case LogLevelInfo:
		return 1
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	case LogLevelFatal:
		return 4
	default:
		return 1
	}
}

// ParseLogLevel converts a string to LogLevel
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "DEBUG", "debug":
		return LogLevelDebug
	case "INFO", "info":
		return LogLevelInfo
	case "WARN", "warn", "WARNING", "warning":
		return LogLevelWarn
	case "ERROR", "error":
		return LogLevelError
	case "FATAL", "fatal":
		return LogLevelFatal
	default:
		return LogLevelInfo
	}
}

// Source identifies which resolution tier produced a log payload
type Source string

const (
	SourceSearchEngine Source = "search-engine"
	SourceFile         Source = "file"
	SourceSynthetic    Source = "synthetic"
)

// LogEntry represents a single log line as resolved from any source.
// Entries are never mutated after creation.
type LogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Application string    `json:"application"`
	Cluster     string    `json:"cluster"`
	Bundle      string    `json:"bundle"`
	Pod         string    `json:"pod"`
	Level       LogLevel  `json:"level"`
	Message     string    `json:"message"`

	// Optional performance fields, present on a subset of entries
	ResponseTimeSeconds float64 `json:"response_time,omitempty"`
	StatusCode          int     `json:"status_code,omitempty"`

	Source Source `json:"source"`
}

// SearchResult holds one page of resolved log entries, most recent first
type SearchResult struct {
	Entries      []LogEntry `json:"entries"`
	TotalMatched int        `json:"total"`
	Page         int        `json:"page"`
	PageSize     int        `json:"page_size"`
	Source       Source     `json:"source"`
}

// Pod describes a discovered pod and how many logs it holds
type Pod struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	LogCount    int    `json:"log_count,omitempty"`
}

// Stats holds term-frequency aggregations over the indexed log corpus
type Stats struct {
	TotalLogs    int            `json:"total_logs"`
	LogLevels    map[string]int `json:"log_levels"`
	Applications map[string]int `json:"applications"`
	Clusters     map[string]int `json:"clusters"`
	Pods         map[string]int `json:"pods"`
	Bundles      map[string]int `json:"bundles"`
}
