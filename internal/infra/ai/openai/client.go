package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/deepfraud/deepfraud/internal/domain/analysis"
	"github.com/deepfraud/deepfraud/internal/infra/ai/prompt"
)

const maxTokens = 2048

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Analyze sends one multimodal request with the forensic instruction and a
// strict JSON response schema, and returns the raw model output. No retry,
// no timeout beyond the transport default.
func (c *Client) Analyze(ctx context.Context, in analysis.Input) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-2024-08-06"
	}

	parts, err := contentParts(in)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "fraud_verdict",
				Schema: prompt.VerdictSchema,
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// contentParts assembles the user message: raw content first, instruction
// last, mirroring the order the prompt was tuned with.
func contentParts(in analysis.Input) ([]openai.ChatMessagePart, error) {
	instruction := openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt.GetUserPrompt(in),
	}

	switch in.MediaType {
	case analysis.MediaText:
		if strings.TrimSpace(in.Text) == "" {
			return nil, analysis.ErrEmptyInput
		}
		return []openai.ChatMessagePart{instruction}, nil

	case analysis.MediaAudio:
		if len(in.Data) == 0 {
			return nil, analysis.ErrEmptyInput
		}
		return []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeInputAudio,
				InputAudio: &openai.ChatMessageInputAudio{
					Data:   base64.StdEncoding.EncodeToString(in.Data),
					Format: audioFormat(in.DefaultMIME()),
				},
			},
			instruction,
		}, nil

	case analysis.MediaImage, analysis.MediaVideo:
		if len(in.Data) == 0 {
			return nil, analysis.ErrEmptyInput
		}
		// Video rides the same inline data-URI part as images; providers
		// without video support reject the request and the caller collapses
		// that into the sentinel result.
		uri := fmt.Sprintf("data:%s;base64,%s", in.DefaultMIME(), base64.StdEncoding.EncodeToString(in.Data))
		return []openai.ChatMessagePart{
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: uri, Detail: openai.ImageURLDetailAuto},
			},
			instruction,
		}, nil
	}
	return nil, fmt.Errorf("unsupported media type: %s", in.MediaType)
}

func audioFormat(mime string) string {
	switch {
	case strings.Contains(mime, "wav"):
		return "wav"
	default:
		return "mp3"
	}
}
