package service

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/katakuxiko/faqbot/internal/config"
	"github.com/katakuxiko/faqbot/internal/model"
)

// LLMClient talks to OpenAI or any OpenAI compatible server.
type LLMClient struct {
	client    *openai.Client
	embedName string
	chatName  string
}

// NewLLMClient builds the client from config. LMBaseURL, when set, points
// it at a compatible server such as LM Studio.
func NewLLMClient(cfg *config.Config) *LLMClient {
	oaiCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.LMBaseURL != "" {
		oaiCfg.BaseURL = cfg.LMBaseURL
	}

	return &LLMClient{
		client:    openai.NewClientWithConfig(oaiCfg),
		embedName: cfg.EmbedModel,
		chatName:  cfg.ChatModel,
	}
}

func (l *LLMClient) Name() string { return "openai" }

// Complete requests one choice and returns its content unmodified.
func (l *LLMClient) Complete(ctx context.Context, turns []model.ChatTurn) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, len(turns))
	for i, t := range turns {
		msgs[i] = openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Content}
	}

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    l.chatName,
		Messages: msgs,
		N:        1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embedding returns the embedding of text. Used by the pgvector index.
func (l *LLMClient) Embedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := l.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(l.embedName),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("provider returned no embeddings")
	}
	return resp.Data[0].Embedding, nil
}
