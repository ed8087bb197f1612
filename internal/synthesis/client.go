// Package synthesis turns text into spoken audio via a generative-AI
// text-to-speech model. The model returns raw 16-bit little-endian PCM at
// 24kHz; callers that need a self-describing file wrap it in a WAV header.
package synthesis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chartvoice/backend/internal/shared"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	voice      string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	voice := cfg.Voice
	if voice == "" {
		voice = "Kore"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		voice:      voice,
	}
}

// speechLanguages maps the UI language to the BCP-47 code the endpoint
// expects for spoken output.
var speechLanguages = map[string]string{
	"en": "en-US",
	"id": "id-ID",
}

// Synthesize returns the spoken form of text as raw PCM at OutputSampleRate,
// voiced in the given UI language.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("no text provided")
	}

	req := synthesizeRequest{
		Contents: []requestContent{{
			Parts: []requestPart{{Text: text}},
		}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.voice},
				},
				LanguageCode: speechLanguages[language],
			},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

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
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("synthesis endpoint: %w", shared.ErrQuotaExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis endpoint returned status %d", resp.StatusCode)
	}

	var synthResp synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&synthResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, cand := range synthResp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode audio payload: %w", err)
			}
			return pcm, nil
		}
	}
	return nil, fmt.Errorf("no audio in synthesis response")
}
