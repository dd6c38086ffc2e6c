package assistant

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI asks a chat-completion model for the next step directly, without
// the hosted endpoint in between.
type OpenAI struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewOpenAI(model string, log *zap.Logger) (*OpenAI, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: model, log: log}, nil
}

func (o *OpenAI) Advise(ctx context.Context, req Request) (*Result, error) {
	var resp openai.ChatCompletionResponse
	var err error

	for attempt := 0; attempt < 5; attempt++ {
		resp, err = o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0,
			MaxTokens:   300,
		})
		if err == nil {
			break
		}
		if strings.Contains(err.Error(), "429") {
			o.log.Warn("rate limited, backing off", zap.Int("attempt", attempt))
			time.Sleep(time.Duration(3*(1<<attempt)) * time.Second)
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion")
	}

	return DecodeReply(resp.Choices[0].Message.Content), nil
}
