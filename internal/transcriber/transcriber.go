// Package transcriber implements speech-to-text for voice messages using
// Google's Gemini API. Audio bytes go in, recognized text comes out; audio
// decoding is left entirely to the model.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ashmarin/remindbot/internal/config"
)

const transcribeInstruction = "Transcribe the spoken audio verbatim. " +
	"Reply with the transcription text only, no commentary."

// Client defines the transcription interface consumed by the voice
// message handler.
type Client interface {
	Transcribe(ctx context.Context, mimeType string, audioData []byte) (string, error)
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	modelName   string
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a Gemini-backed transcriber. Returns nil, nil when no
// API key is configured, which disables voice message handling.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		log.Info("Gemini API key not configured, voice transcription disabled")
		return nil, nil
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "transcriber")
	logger.Info("Transcriber initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		modelName:   cfg.ModelName,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

// Transcribe converts a voice recording to text.
func (c *sdkClient) Transcribe(ctx context.Context, mimeType string, audioData []byte) (string, error) {
	if len(audioData) == 0 || mimeType == "" {
		return "", fmt.Errorf("audio data and MIME type are required for transcription")
	}

	c.log.DebugContext(ctx, "Transcribing voice message", "audio_size", len(audioData), "mime_type", mimeType)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcribeInstruction),
			genai.NewPartFromBytes(audioData, mimeType),
		}, genai.RoleUser),
	}

	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini transcription API call failed", "error", err)
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("transcription blocked by safety filter: %v", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("transcription returned empty content")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("transcription returned empty text")
	}

	c.log.DebugContext(ctx, "Voice message transcribed", "text_len", len(text))
	return text, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, nil)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call after retriable error",
					"attempt", i+1, "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}
