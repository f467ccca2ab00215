// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/jeranaias/novagem/internal/logging"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Messages the backend service returns for Gemini failures. The direct
// transport reports them the same way so the user sees identical text.
const (
	geminiNotConfigured = "AI service is not configured or temporarily unavailable. Please contact support."
	geminiBlockedFmt    = "Your request was blocked: %s"
	geminiBlockedOther  = "Content blocked by safety settings."
	geminiBadConfig     = "There was an issue with the AI service configuration (e.g., API key)."
	geminiPermission    = "API key lacks permission for the requested operation."
	geminiQuota         = "AI service quota exceeded. Please try again later."
	geminiAPIFailure    = "An unexpected error occurred with the AI service."
	geminiNoText        = "Failed to process the response from the AI service."
)

// generator is the slice of the genai client the transport uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiTransport asks the Gemini API directly instead of going through the
// HTTP backend.
type GeminiTransport struct {
	models  generator
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiTransport creates a transport using apiKey. A missing key is not
// an error here: every Ask then fails with the same 503 the backend returns
// when it has no model configured. A positive timeout bounds each request.
func NewGeminiTransport(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*GeminiTransport, error) {
	logger = logging.OrNop(logger)
	if model == "" {
		model = DefaultGeminiModel
	}

	t := &GeminiTransport{model: model, timeout: timeout, logger: logger.Named("gemini")}
	if apiKey == "" {
		t.logger.Warn("Gemini API key is not set; AI service will be unavailable")
		return t, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	t.models = client.Models
	return t, nil
}

// Ask implements Transport.
func (t *GeminiTransport) Ask(ctx context.Context, question string) (string, error) {
	if t.models == nil {
		return "", &StatusError{Status: http.StatusServiceUnavailable, ServerMessage: geminiNotConfigured}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}
	resp, err := t.models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", t.mapError(err)
	}

	t.logger.Debug("generate content completed",
		zap.String("model", t.model),
		zap.Duration("duration", time.Since(start)))

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		reason := fb.BlockReasonMessage
		if reason == "" {
			reason = geminiBlockedOther
		}
		t.logger.Warn("prompt blocked", zap.String("reason", string(fb.BlockReason)))
		return "", &StatusError{
			Status:        http.StatusBadRequest,
			ServerMessage: fmt.Sprintf(geminiBlockedFmt, reason),
		}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &StatusError{Status: http.StatusInternalServerError, ServerMessage: geminiNoText}
	}
	return resp.Text(), nil
}

// mapError converts a genai failure to the status the backend would send.
func (t *GeminiTransport) mapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		t.logger.Warn("Gemini request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	t.logger.Warn("Gemini API error",
		zap.Int("code", apiErr.Code),
		zap.String("status", apiErr.Status))

	switch apiErr.Code {
	case http.StatusBadRequest:
		return &StatusError{Status: http.StatusInternalServerError, ServerMessage: geminiBadConfig}
	case http.StatusForbidden:
		return &StatusError{Status: http.StatusForbidden, ServerMessage: geminiPermission}
	case http.StatusTooManyRequests:
		return &StatusError{Status: http.StatusTooManyRequests, ServerMessage: geminiQuota}
	default:
		return &StatusError{Status: http.StatusServiceUnavailable, ServerMessage: geminiAPIFailure}
	}
}
