package service

import (
	"context"

	"github.com/katakuxiko/faqbot/internal/model"
)

// Provider is a chat completion backend. Complete sends the turns in order
// and returns the text of a single completion choice.
type Provider interface {
	Name() string
	Complete(ctx context.Context, turns []model.ChatTurn) (string, error)
}
