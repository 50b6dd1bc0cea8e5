package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"project-planner/backend/internal/apperrors"
	"project-planner/backend/internal/config"
	"project-planner/backend/internal/resilience"
)

// ImageGenerator turns a prompt into an image reference: an http(s) URL or a
// data URI.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ImageClient calls the OpenAI-compatible /images/generations endpoint.
type ImageClient struct {
	baseURL        string
	apiKey         string
	model          string
	size           string
	responseFormat string
	http           *http.Client
	breaker        *resilience.Breaker
	logger         *zap.SugaredLogger
}

func NewImageClient(cfg config.LLMConfig, logger *zap.SugaredLogger) *ImageClient {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	breakerCfg := resilience.DefaultBreakerConfig("image-generation")
	if cfg.BreakerMaxFailures > 0 {
		breakerCfg.MaxFailures = cfg.BreakerMaxFailures
	}
	if cfg.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerTimeout
	}
	breakerCfg.OnStateChange = func(name string, from, to resilience.State) {
		logger.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}

	return &ImageClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		model:          cfg.ImageModel,
		size:           cfg.ImageSize,
		responseFormat: cfg.ImageResponseFormat,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		breaker: resilience.NewBreaker(breakerCfg),
		logger:  logger,
	}
}

func (c *ImageClient) Breaker() *resilience.Breaker {
	return c.breaker
}

func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.ImageGeneration("image generation is not configured", ErrNotConfigured)
	}

	var ref string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		ref, err = c.generate(ctx, prompt)
		return err
	})
	if err != nil {
		return "", apperrors.ImageGeneration("image generation failed", err)
	}
	return ref, nil
}

func (c *ImageClient) generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(imageRequest{
		Model:          c.model,
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		ResponseFormat: c.responseFormat,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded imageResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			return "", fmt.Errorf("status %s: %s", resp.Status, decoded.Error.Message)
		}
		return "", fmt.Errorf("status %s", resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(decoded.Data) == 0 {
		return "", fmt.Errorf("response missing image data")
	}

	first := decoded.Data[0]
	switch {
	case strings.TrimSpace(first.URL) != "":
		return strings.TrimSpace(first.URL), nil
	case first.B64JSON != "":
		return "data:image/png;base64," + first.B64JSON, nil
	}
	return "", fmt.Errorf("response carried no usable image reference")
}
