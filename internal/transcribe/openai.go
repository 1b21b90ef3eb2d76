package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// OpenAIEngine uses an OpenAI compatible /v1/audio/transcriptions endpoint.
type OpenAIEngine struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIEngine creates an engine for the API at baseURL (e.g. https://api.openai.com).
func NewOpenAIEngine(baseURL, apiKey string, timeout time.Duration) *OpenAIEngine {
	return &OpenAIEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (e *OpenAIEngine) Name() string {
	return "openai"
}

func (e *OpenAIEngine) Recognize(ctx context.Context, audioPath string, req Request) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	fields := map[string]string{
		"model":           req.Model,
		"response_format": "text",
	}
	if req.Language != "" && req.Language != "auto" {
		fields["language"] = req.Language
	}

	body, contentType, err := multipartBody(audioPath, fields)
	if err != nil {
		return "", err
	}

	url := e.baseURL + "/v1/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	log.Debug("sending audio to transcription API", "url", url, "audio", filepath.Base(audioPath), "model", req.Model)

	return doTextRequest(e.httpClient, httpReq, "OpenAI API")
}
