// Package analysis classifies a trading-chart image into a BUY/SELL/HOLD
// signal via a one-shot generative-AI call.
package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chartvoice/backend/internal/shared"
)

const analysisPrompt = `You are an expert technical analyst. Analyze this trading chart and respond with a trading signal.
Respond in %s.`

var promptLanguages = map[string]string{
	"en": "English",
	"id": "Indonesian",
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	backoff    shared.BackoffConfig
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		backoff:    normalizeBackoff(cfg.Backoff),
	}
}

// Backoff applies only to rate-limit responses: 2 retries, 2s initial,
// doubling. Every other failure propagates immediately.
func normalizeBackoff(cfg shared.BackoffConfig) shared.BackoffConfig {
	if cfg.Initial <= 0 {
		cfg.Initial = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 8 * time.Second
	}
	return cfg
}

// Analyze sends the chart image and returns the structured signal.
func (c *Client) Analyze(ctx context.Context, image []byte, mimeType, language string) (*Result, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("no image data provided")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	langName, ok := promptLanguages[language]
	if !ok {
		langName = promptLanguages["en"]
	}

	req := generateRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
				{Text: fmt.Sprintf(analysisPrompt, langName)},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: &responseSchema{
				Type: "OBJECT",
				Properties: map[string]schemaProperty{
					"type":        {Type: "STRING", Enum: []string{"BUY", "SELL", "HOLD"}},
					"confidence":  {Type: "INTEGER"},
					"timeframe":   {Type: "STRING"},
					"explanation": {Type: "STRING"},
				},
				Required: []string{"type", "confidence", "timeframe", "explanation"},
			},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	delay := c.backoff.Initial
	for attempt := 0; ; attempt++ {
		result, err := c.generateOnce(ctx, body)
		if err == nil {
			return result, nil
		}
		if !shouldRetry(err) || attempt >= c.backoff.MaxAttempts {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, c.backoff.MaxDelay)
	}
}

func shouldRetry(err error) bool {
	return errors.Is(err, shared.ErrQuotaExceeded)
}

func (c *Client) generateOnce(ctx context.Context, body []byte) (*Result, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("analysis endpoint: %w", shared.ErrQuotaExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis endpoint returned status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty analysis response")
	}

	return parseResult(genResp.Candidates[0].Content.Parts[0].Text)
}

// parseResult decodes the model's JSON answer, tolerating a markdown code
// fence, and normalizes the fields.
func parseResult(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse analysis result: %w", err)
	}

	result.Type = shared.SignalType(strings.ToUpper(string(result.Type)))
	if !result.Type.Valid() {
		return nil, fmt.Errorf("invalid signal type %q", result.Type)
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	} else if result.Confidence > 100 {
		result.Confidence = 100
	}
	return &result, nil
}
