package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNewAnalysisRequest_Truncation(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		req := NewAnalysisRequest("INFO: ok", IntentSummarize)
		assert.Equal(t, "INFO: ok", req.Text)
	})

	t.Run("oversized text is cut with the marker", func(t *testing.T) {
		req := NewAnalysisRequest(strings.Repeat("a", MaxAnalyzableChars+500), IntentSummarize)
		assert.Len(t, req.Text, MaxAnalyzableChars+len(TruncationMarker))
		assert.True(t, strings.HasSuffix(req.Text, TruncationMarker))
	})

	t.Run("cut never splits a multi-byte rune", func(t *testing.T) {
		// three-byte runes guarantee the byte limit lands mid-rune
		text := strings.Repeat("日", MaxAnalyzableChars)
		req := NewAnalysisRequest(text, IntentRootCause)

		assert.True(t, utf8.ValidString(req.Text))
		assert.LessOrEqual(t, len(req.Text), MaxAnalyzableChars+len(TruncationMarker))
		assert.True(t, strings.HasSuffix(req.Text, TruncationMarker))
	})
}

func TestAnalysisRequest_Empty(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"initial placeholder", "Waiting for execution...", true},
		{"loading placeholder", "Fetching pod logs...", true},
		{"real log text", "[2025-06-01 10:00:00] INFO: ok", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewAnalysisRequest(tt.text, IntentSummarize)
			assert.Equal(t, tt.want, req.Empty())
		})
	}
}
