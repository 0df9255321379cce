package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/logops-io/logops/internal/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

// FormatEntries renders log entries as display text, one line per entry
func FormatEntries(entries []domain.LogEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format(timestampLayout), e.Level, e.Message)
		if e.Pod != "" {
			line += fmt.Sprintf(" [pod: %s]", e.Pod)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// podLogsHeader builds the metadata block prepended to every pod-log
// payload so consumers can see provenance at a glance
func podLogsHeader(f domain.Filter, source domain.Source, loadedAt time.Time) string {
	var b strings.Builder
	b.WriteString("# LogOps - Log Viewer\n")
	fmt.Fprintf(&b, "# Loaded: %s\n", loadedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "# Source: %s\n", source)
	fmt.Fprintf(&b, "# Pod: %s\n", f.Pod)
	fmt.Fprintf(&b, "# Application: %s\n", f.Application)
	fmt.Fprintf(&b, "# Cluster: %s\n", f.Cluster)
	fmt.Fprintf(&b, "# Bundle: %s\n", f.Bundle)
	b.WriteString("# ====================================\n\n")
	return b.String()
}

// titleCase capitalizes each hyphen- or space-separated word, used for pod
// display names
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == ' ' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
