package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"retouchbot/internal/core/domain"

	"github.com/revrost/go-openrouter"
)

const defaultQuestion = "Describe this image in detail."

// OpenRouterClient is the slice of the OpenRouter SDK the describer needs,
// so tests can substitute a double.
type OpenRouterClient interface {
	CreateChatCompletion(ctx context.Context,
		request openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

type OpenRouter struct {
	client       OpenRouterClient
	model        string
	systemPrompt string
}

func NewOpenRouter(apiKey, model, systemPrompt string) *OpenRouter {
	return &OpenRouter{
		model:        model,
		systemPrompt: systemPrompt,
		client: openrouter.NewClient(
			apiKey,
			openrouter.WithXTitle("retouchbot"),
		),
	}
}

// DescribeImage sends the image inline as a data URL together with the
// question and returns the model's answer.
func (c *OpenRouter) DescribeImage(ctx context.Context,
	image domain.SourceImage, question string) (domain.ModelResponse, error) {
	if question == "" {
		question = defaultQuestion
	}

	imageURL := "data:" + image.MIME + ";base64," + base64.StdEncoding.EncodeToString(image.Data)

	messages := []openrouter.ChatCompletionMessage{
		{
			Role: openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{
				Text: c.systemPrompt,
			},
		},
		{
			Role: openrouter.ChatMessageRoleUser,
			Content: openrouter.Content{Multi: []openrouter.ChatMessagePart{
				{
					Type:     openrouter.ChatMessagePartTypeImageURL,
					ImageURL: &openrouter.ChatMessageImageURL{URL: imageURL},
				},
				{
					Type: openrouter.ChatMessagePartTypeText,
					Text: question,
				},
			}},
		},
	}

	ccr := openrouter.ChatCompletionRequest{
		Messages: messages,
		Model:    c.model,
	}

	resp, err := c.client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return domain.ModelResponse{}, fmt.Errorf("openrouter API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return domain.ModelResponse{}, errors.New("openrouter API returned no choices")
	}

	return domain.ModelResponse{
		Response: resp.Choices[0].Message.Content.Text,
		Metadata: domain.ResponseMetadata{
			Model:            resp.Model,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
