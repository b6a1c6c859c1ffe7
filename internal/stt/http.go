package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tobysim/radiation/internal/audio"
)

// HTTP uploads phrases to an OpenAI-compatible transcription endpoint,
// such as OpenAI, Groq or a local whisper server.
type HTTP struct {
	config Config
	client *http.Client
}

// NewHTTP creates an HTTP transcriber.
func NewHTTP(config Config) *HTTP {
	return &HTTP{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Transcribe uploads clip as a WAV file and returns the recognized text.
func (h *HTTP) Transcribe(ctx context.Context, clip audio.Clip) (string, error) {
	wavData, err := audio.EncodeWAV(clip)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "phrase.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if h.config.Model != "" {
		if err := writer.WriteField("model", h.config.Model); err != nil {
			return "", fmt.Errorf("failed to write model field: %w", err)
		}
	}
	if h.config.Language != "" {
		if err := writer.WriteField("language", h.config.Language); err != nil {
			return "", fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("failed to write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.URL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if h.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
	}

	log.Debug("Sending phrase for transcription", "bytes", len(wavData), "audio", clip.Duration())
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %w", ErrRequestFailed, err)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", ErrNotUnderstood
	}
	return text, nil
}
