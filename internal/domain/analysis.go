package domain

import (
	"time"
	"unicode/utf8"
)

// Intent selects the kind of analysis performed on a block of log text
type Intent string

const (
	IntentSummarize Intent = "summarize"
	IntentRootCause Intent = "root-cause"
)

// Service identifies which analysis tier produced a result
type Service string

const (
	ServiceRemoteModel    Service = "remote-model"
	ServiceLocalHeuristic Service = "local-heuristic"
	ServiceNone           Service = "none"
)

// MaxAnalyzableChars bounds the log text sent to either analysis tier
const MaxAnalyzableChars = 8000

// TruncationMarker is appended when log text is cut at MaxAnalyzableChars
const TruncationMarker = "\n... (truncated for analysis)"

// placeholders shown by the UI before any logs have loaded; analyzing them
// would only describe the placeholder itself
var placeholders = map[string]bool{
	"Waiting for execution...": true,
	"Fetching pod logs...":     true,
}

// AnalysisRequest is a bounded block of log text plus the requested intent.
// RemoteOptOut forces local analysis even when a remote model is available.
type AnalysisRequest struct {
	Text         string
	Intent       Intent
	RemoteOptOut bool
}

// NewAnalysisRequest builds a request, truncating oversized text with an
// explicit marker so the model knows the log is incomplete. The cut backs
// off to a rune boundary so truncation never produces invalid UTF-8.
func NewAnalysisRequest(text string, intent Intent) AnalysisRequest {
	if len(text) > MaxAnalyzableChars {
		cut := MaxAnalyzableChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + TruncationMarker
	}
	return AnalysisRequest{Text: text, Intent: intent}
}

// Empty reports whether there is nothing meaningful to analyze
func (r AnalysisRequest) Empty() bool {
	return r.Text == "" || placeholders[r.Text]
}

// AnalysisResult is the outcome of one analysis request
type AnalysisResult struct {
	Body        string    `json:"body"`
	ServiceUsed Service   `json:"service_used"`
	ModelName   string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}
