package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/logops-io/logops/internal/domain"
)

const (
	summaryEngineName   = "LogOps Pattern Analysis Engine"
	rootCauseEngineName = "LogOps RCA Engine"

	// shownIssues caps how many ERROR/WARN lines are quoted verbatim
	shownIssues = 3
)

// LocalHeuristic analyzes logs with level counting and keyword pattern
// matching. It never fails and requires no network, which makes it the
// terminal strategy in the engine chain.
type LocalHeuristic struct{}

// NewLocalHeuristic creates the fallback strategy
func NewLocalHeuristic() *LocalHeuristic { return &LocalHeuristic{} }

// Service implements Strategy
func (h *LocalHeuristic) Service() domain.Service { return domain.ServiceLocalHeuristic }

// ModelName implements Strategy
func (h *LocalHeuristic) ModelName(intent domain.Intent) string {
	if intent == domain.IntentRootCause {
		return rootCauseEngineName
	}
	return summaryEngineName
}

// Analyze implements Strategy; the error is always nil
func (h *LocalHeuristic) Analyze(_ context.Context, req domain.AnalysisRequest) (string, error) {
	if req.Intent == domain.IntentRootCause {
		return h.rootCause(req.Text), nil
	}
	return h.summarize(req.Text), nil
}

func (h *LocalHeuristic) summarize(text string) string {
	lines := strings.Split(text, "\n")

	var total, infoCount, warnCount, errorCount int
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		switch {
		case strings.Contains(line, "INFO"):
			infoCount++
		case strings.Contains(line, "WARN"):
			warnCount++
		case strings.Contains(line, "ERROR"), strings.Contains(line, "FATAL"):
			errorCount++
		}
	}

	var b strings.Builder
	b.WriteString("Log Summary\n")
	fmt.Fprintf(&b, "- Total log entries: %d\n", total)
	fmt.Fprintf(&b, "- INFO messages: %d\n", infoCount)
	fmt.Fprintf(&b, "- WARN messages: %d\n", warnCount)
	fmt.Fprintf(&b, "- ERROR messages: %d\n\n", errorCount)

	switch {
	case errorCount > 0:
		b.WriteString("Status: ERRORS DETECTED\n")
		fmt.Fprintf(&b, "- %d error(s) found requiring attention\n", errorCount)
	case warnCount > 0:
		b.WriteString("Status: WARNINGS PRESENT\n")
		fmt.Fprintf(&b, "- %d warning(s) detected\n", warnCount)
	default:
		b.WriteString("Status: HEALTHY\n")
		b.WriteString("- No errors or warnings detected\n")
	}

	b.WriteString("\nRecommendations:\n")
	if errorCount > 0 {
		b.WriteString("- Immediate investigation required for errors\n")
	}
	if warnCount > 0 {
		b.WriteString("- Monitor warnings for potential issues\n")
	}
	b.WriteString("- Continue monitoring system health")
	return b.String()
}

func (h *LocalHeuristic) rootCause(text string) string {
	lines := strings.Split(text, "\n")

	var errs, warns []string
	for _, line := range lines {
		switch {
		case strings.Contains(line, "ERROR"), strings.Contains(line, "FATAL"):
			errs = append(errs, strings.TrimSpace(line))
		case strings.Contains(line, "WARN"):
			warns = append(warns, strings.TrimSpace(line))
		}
	}

	var b strings.Builder
	switch {
	case len(errs) > 0:
		fmt.Fprintf(&b, "Critical Issues Found (%d):\n", len(errs))
		writeIssueList(&b, errs)

		b.WriteString("\nRoot Cause Assessment:\n")
		lower := strings.ToLower(text)
		if strings.Contains(lower, "timeout") {
			b.WriteString("- Connection timeouts detected - network or database issues\n")
		}
		if strings.Contains(lower, "memory") {
			b.WriteString("- Memory-related issues detected - potential resource constraints\n")
		}
		if strings.Contains(lower, "connection") {
			b.WriteString("- Connection issues detected - service availability problems\n")
		}

		b.WriteString("\nImmediate Actions:\n")
		b.WriteString("1. Check service health and connectivity\n")
		b.WriteString("2. Review system resources (CPU, memory, disk)\n")
		b.WriteString("3. Verify database and network connectivity\n")
		b.WriteString("4. Check for recent deployments or configuration changes")

	case len(warns) > 0:
		fmt.Fprintf(&b, "Warning Conditions (%d):\n", len(warns))
		writeIssueList(&b, warns)

		b.WriteString("\nPreventive Actions:\n")
		b.WriteString("1. Monitor system metrics closely\n")
		b.WriteString("2. Consider scaling resources if needed\n")
		b.WriteString("3. Review performance thresholds")

	default:
		b.WriteString("System Operating Normally\n")
		b.WriteString("- No critical errors detected\n")
		b.WriteString("- System appears healthy\n")
		b.WriteString("\nOptimization Opportunities:\n")
		b.WriteString("1. Continue monitoring for trends\n")
		b.WriteString("2. Review performance metrics\n")
		b.WriteString("3. Consider proactive maintenance")
	}
	return b.String()
}

func writeIssueList(b *strings.Builder, issues []string) {
	for i, issue := range issues {
		if i == shownIssues {
			fmt.Fprintf(b, "... and %d more\n", len(issues)-shownIssues)
			break
		}
		fmt.Fprintf(b, "%d. %s\n", i+1, issue)
	}
}
