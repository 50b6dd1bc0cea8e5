package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"project-planner/backend/internal/apperrors"
	"project-planner/backend/internal/config"
)

// TextGenerator fills dest with a reply that satisfies schema.
type TextGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema Schema, dest interface{}) error
}

type TextClient struct {
	model       llms.Model
	temperature float64
	validate    *validator.Validate
	logger      *zap.SugaredLogger
}

type TextOption func(*TextClient)

func WithTemperature(t float64) TextOption {
	return func(c *TextClient) { c.temperature = t }
}

func WithTextLogger(l *zap.SugaredLogger) TextOption {
	return func(c *TextClient) { c.logger = l }
}

func NewTextClient(model llms.Model, opts ...TextOption) *TextClient {
	c := &TextClient{
		model:       model,
		temperature: 0.4,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewOpenAIModel builds an OpenAI-compatible chat model in JSON mode. Without
// an API key it returns a model that refuses every call so the rest of the
// service keeps working.
func NewOpenAIModel(cfg config.LLMConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return disabledModel{}, nil
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.TextModel),
		openai.WithResponseFormat(&openai.ResponseFormat{
			Type: "json_object",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return model, nil
}

var ErrNotConfigured = errors.New("LLM API key is not configured")

type disabledModel struct{}

func (disabledModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, ErrNotConfigured
}

func (disabledModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", ErrNotConfigured
}

func (c *TextClient) GenerateStructured(ctx context.Context, prompt string, schema Schema, dest interface{}) error {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(schema.Instruction())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		return apperrors.Generation("text generation failed", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return ErrEmptyOutput
	}

	content := resp.Choices[0].Content
	raw, ok := extractJSONObject(content)
	if !ok {
		c.logger.Debugw("model reply carried no JSON object", "schema", schema.Name, "reply", content)
		return ErrEmptyOutput
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return apperrors.Generation("could not decode model output", err)
	}

	if err := c.validate.Struct(dest); err != nil {
		return newSchemaError(schema.Name, err)
	}

	return nil
}
