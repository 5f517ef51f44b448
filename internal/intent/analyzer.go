// Package intent reads a free-text CRM question into a QueryAnalysis, using a remote
// model when one is configured and a keyword heuristic otherwise.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "copper-intel-workers/internal/common/http"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/models"
)

var (
	ErrIntentParsingFailed = errors.New("INTENT_PARSING_FAILED")
	ErrIntentAPITimeout    = errors.New("INTENT_API_TIMEOUT")
)

type Config struct {
	ProxyURL    string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Analyzer never fails: any problem with the remote model falls back to Heuristic.
type Analyzer struct {
	config *Config
	client commonhttp.Doer
	logger logger.Logger
}

func NewAnalyzer(config *Config, client commonhttp.Doer, log logger.Logger) *Analyzer {
	if client == nil {
		client = commonhttp.NewClient(config.Timeout)
	}
	return &Analyzer{
		config: config,
		client: client,
		logger: log.With(map[string]interface{}{"component": "intent"}),
	}
}

// Analyze returns the structured reading of text.
func (a *Analyzer) Analyze(ctx context.Context, text string) models.QueryAnalysis {
	if strings.TrimSpace(a.config.ProxyURL) == "" {
		metrics.IntentAnalyses.WithLabelValues(models.AnalysisSourceHeuristic).Inc()
		return Heuristic(text)
	}

	analysis, err := a.callModel(ctx, text)
	if err != nil {
		a.logger.Warn("model analysis failed, using heuristic", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.IntentAnalyses.WithLabelValues(models.AnalysisSourceHeuristic).Inc()
		return Heuristic(text)
	}

	metrics.IntentAnalyses.WithLabelValues(models.AnalysisSourceModel).Inc()
	a.logger.Info("query analysed", map[string]interface{}{
		"intent":     analysis.Intent,
		"entityType": string(analysis.EntityType),
		"entityName": analysis.EntityName,
	})
	return *analysis
}

type proxyRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

type proxyResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

type modelAnalysis struct {
	Intent     string            `json:"intent"`
	EntityType string            `json:"entity_type"`
	EntityName *string           `json:"entity_name"`
	Include    []string          `json:"include"`
	Filters    map[string]string `json:"filters"`
}

func (a *Analyzer) callModel(ctx context.Context, text string) (*models.QueryAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	body, err := json.Marshal(proxyRequest{
		Prompt:      buildPrompt(text),
		MaxTokens:   a.config.MaxTokens,
		Model:       a.config.Model,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, err)
	}
	url := strings.TrimRight(a.config.ProxyURL, "/") + "/v1/messages"

	var raw []byte
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrIntentAPITimeout
			}
		}

		raw, lastErr = a.post(ctx, url, body)
		if ctx.Err() != nil || errors.Is(lastErr, context.DeadlineExceeded) {
			return nil, ErrIntentAPITimeout
		}
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, lastErr)
	}

	var resp proxyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode proxy response: %v", ErrIntentParsingFailed, err)
	}
	return parseContent(resp.Content)
}

func (a *Analyzer) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return raw, nil
}

// parseContent decodes the model's JSON reply, tolerating a markdown code fence.
func parseContent(content string) (*models.QueryAnalysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrIntentParsingFailed)
	}

	var m modelAnalysis
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, err)
	}

	include := models.ParseInclude(m.Include)
	if len(include) == 0 {
		include = append([]models.Relation(nil), models.DefaultInclude...)
	}
	name := ""
	if m.EntityName != nil {
		name = strings.TrimSpace(*m.EntityName)
	}
	intent := strings.TrimSpace(m.Intent)
	if intent == "" {
		intent = "all"
	}

	return &models.QueryAnalysis{
		Intent:     intent,
		EntityType: models.ParseEntityType(m.EntityType),
		EntityName: name,
		Include:    include,
		Filters:    m.Filters,
		Source:     models.AnalysisSourceModel,
	}, nil
}

func buildPrompt(query string) string {
	return fmt.Sprintf(`Analyze this CRM query and extract structured information.

Query: %q

Respond ONLY with valid JSON:
{
  "intent": "status|overview|contacts|deals|history|all",
  "entity_type": "company|person|opportunity|lead|task|general",
  "entity_name": "specific name or null",
  "include": ["contacts", "opportunities", "leads", "tasks", "companies"],
  "filters": {"company": "", "industry": "", "status": "", "assignee": ""}
}

Omit filters that the query does not mention.

Examples:
"What's the status of PubX?" -> {"intent": "status", "entity_type": "company", "entity_name": "PubX", "include": ["contacts", "opportunities", "leads", "tasks"]}
"Show me everything about John Doe" -> {"intent": "all", "entity_type": "person", "entity_name": "John Doe", "include": ["companies", "opportunities", "tasks"]}
"Who are we talking to at Microsoft?" -> {"intent": "contacts", "entity_type": "company", "entity_name": "Microsoft", "include": ["contacts", "opportunities"]}
`, query)
}
