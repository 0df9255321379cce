package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/logops-io/logops/internal/domain"
)

const remoteTimeout = 30 * time.Second

const summarizeSystemPrompt = `You are an expert DevOps engineer who specializes in analyzing application logs.
Provide a clear, concise summary that includes:
1. Overall status (Success/Failure/Warning)
2. Key events or operations performed
3. Any errors or warnings found
4. Performance metrics if available
5. Actionable recommendations
Keep the summary under 300 words and use bullet points for clarity.`

const rootCauseSystemPrompt = `You are a senior DevOps engineer specializing in root cause analysis.
Analyze the provided logs and identify:
1. Primary errors or failures and their root causes
2. Impact assessment (High/Medium/Low)
3. Recommended actions to resolve issues
4. Prevention strategies for the future
5. Timeline of critical events

Be specific and actionable in your recommendations.
If no errors are found, indicate successful execution and any optimization opportunities.
Provide step-by-step remediation where applicable.`

// RemoteConfig points at an OpenAI-compatible chat completions endpoint.
// All three fields come from configuration; there are no baked-in defaults
// for credentials.
type RemoteConfig struct {
	URL    string
	APIKey string
	Model  string
}

// Configured reports whether the remote tier can be used at all
func (c RemoteConfig) Configured() bool {
	return c.URL != "" && c.APIKey != "" && c.Model != ""
}

// RemoteModel analyzes logs through a hosted chat completion model.
type RemoteModel struct {
	cfg    RemoteConfig
	client *http.Client
	logger *zap.Logger
}

// NewRemoteModel creates the remote strategy. Callers should check
// cfg.Configured() first; an unconfigured strategy fails every request.
func NewRemoteModel(cfg RemoteConfig, logger *zap.Logger) *RemoteModel {
	return &RemoteModel{
		cfg:    cfg,
		client: &http.Client{Timeout: remoteTimeout},
		logger: logger,
	}
}

// Service implements Strategy
func (m *RemoteModel) Service() domain.Service { return domain.ServiceRemoteModel }

// ModelName implements Strategy
func (m *RemoteModel) ModelName(domain.Intent) string { return m.cfg.Model }

// Analyze sends the log text to the chat endpoint and returns the model's
// reply. Any transport, status, or shape problem maps to ErrRemoteModel so
// the engine falls through to the next strategy.
func (m *RemoteModel) Analyze(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	if !m.cfg.Configured() {
		return "", fmt.Errorf("%w: remote model not configured", domain.ErrRemoteModel)
	}

	system, user, maxTokens := prompts(req.Intent)
	payload := map[string]any{
		"model": m.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user + req.Text},
		},
		"max_tokens":  maxTokens,
		"temperature": 0.3,
		"top_p":       0.9,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrRemoteModel, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRemoteModel, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRemoteModel, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrRemoteModel, err)
	}
	if resp.StatusCode != http.StatusOK {
		m.logger.Error("remote model returned non-OK status",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", truncateBody(raw)))
		return "", fmt.Errorf("%w: status %d", domain.ErrRemoteModel, resp.StatusCode)
	}

	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrRemoteModel)
	}
	return content, nil
}

func prompts(intent domain.Intent) (system, userPrefix string, maxTokens int) {
	if intent == domain.IntentRootCause {
		return rootCauseSystemPrompt, "Perform comprehensive root cause analysis on this log:\n\n", 600
	}
	return summarizeSystemPrompt, "Analyze and summarize this application log:\n\n", 500
}

func truncateBody(b []byte) []byte {
	const max = 200
	if len(b) > max {
		return b[:max]
	}
	return b
}
