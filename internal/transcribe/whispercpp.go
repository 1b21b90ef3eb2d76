package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/version"
)

// WhisperCppEngine talks to the whisper.cpp HTTP server (whisper-server).
// The server holds a single model, so switching models waits for running
// inferences to finish before posting to /load.
type WhisperCppEngine struct {
	baseURL    string
	modelDir   string
	httpClient *http.Client

	mu     sync.RWMutex
	loaded string
}

// NewWhisperCppEngine creates an engine for the whisper.cpp server at baseURL.
// modelDir is the directory of the ggml model files on the server.
func NewWhisperCppEngine(baseURL, modelDir string, timeout time.Duration) *WhisperCppEngine {
	return &WhisperCppEngine{
		baseURL:  strings.TrimRight(baseURL, "/"),
		modelDir: modelDir,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ModelPath maps a model name like "large-v3" to the server side file
// models/ggml-large-v3.bin. Paths and .bin names are used as they are.
func (e *WhisperCppEngine) ModelPath(model string) string {
	if strings.ContainsAny(model, "/\\") || strings.HasSuffix(model, ".bin") {
		return model
	}
	return path.Join(e.modelDir, "ggml-"+model+".bin")
}

// LoadModel makes sure model is the one loaded on the server.
func (e *WhisperCppEngine) LoadModel(ctx context.Context, model string) error {
	release, err := e.acquire(ctx, model)
	if err != nil {
		return err
	}
	release()
	return nil
}

// acquire returns with a read lock held while model is loaded on the server.
func (e *WhisperCppEngine) acquire(ctx context.Context, model string) (func(), error) {
	if model == "" {
		return func() {}, nil
	}
	modelPath := e.ModelPath(model)
	for {
		e.mu.RLock()
		if e.loaded == modelPath {
			return e.mu.RUnlock, nil
		}
		e.mu.RUnlock()

		e.mu.Lock()
		if e.loaded != modelPath {
			if err := e.load(ctx, modelPath); err != nil {
				e.mu.Unlock()
				return nil, err
			}
			e.loaded = modelPath
		}
		e.mu.Unlock()
	}
}

func (e *WhisperCppEngine) load(ctx context.Context, modelPath string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", modelPath); err != nil {
		return fmt.Errorf("write field model: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	url := e.baseURL + "/load"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	log.Info("loading model on whisper server", "url", url, "model", modelPath)
	if _, err := doTextRequest(e.httpClient, httpReq, "whisper server"); err != nil {
		return fmt.Errorf("failed to load model %s: %w", modelPath, err)
	}
	return nil
}

func (e *WhisperCppEngine) Name() string {
	return "whisper.cpp"
}

// Recognize posts the audio file to /inference and returns the plain text
// transcript. req.Model is loaded first if the server holds another model.
func (e *WhisperCppEngine) Recognize(ctx context.Context, audioPath string, req Request) (string, error) {
	release, err := e.acquire(ctx, req.Model)
	if err != nil {
		return "", err
	}
	defer release()

	fields := map[string]string{
		"response_format": "text",
		"temperature":     "0.0",
	}
	if req.Language != "" && req.Language != "auto" {
		fields["language"] = req.Language
	}

	body, contentType, err := multipartBody(audioPath, fields)
	if err != nil {
		return "", err
	}

	url := e.baseURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	log.Debug("sending audio to whisper server", "url", url, "audio", filepath.Base(audioPath), "model", req.Model)

	return doTextRequest(e.httpClient, httpReq, "whisper server")
}

// multipartBody builds a form with the audio under "file" plus the given fields.
func multipartBody(audioPath string, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(audioPath) //nolint:gosec
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close() //nolint:errcheck

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func doTextRequest(client *http.Client, req *http.Request, name string) (string, error) {
	req.Header.Set("User-Agent", fmt.Sprintf("subgen/%s", version.Version))
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", name, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s error (status %d): %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
