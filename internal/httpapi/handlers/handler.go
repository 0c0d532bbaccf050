package handlers

import (
	"context"

	"github.com/suPer8Hu/chat-exchange/internal/chat"
	"github.com/suPer8Hu/chat-exchange/internal/store/rabbitmq"
)

// EventPublisher receives the outcome of every exchange that reached the store.
type EventPublisher interface {
	PublishExchange(ctx context.Context, ev rabbitmq.ExchangeEvent) error
}

// UsageReader serves the per-user counters the worker maintains.
type UsageReader interface {
	Usage(ctx context.Context, userID string) (map[string]int64, error)
}

type Handler struct {
	ChatSvc *chat.Service
	Events  EventPublisher // optional
	Usage   UsageReader    // optional
}

func NewHandler(chatSvc *chat.Service, events EventPublisher, usage UsageReader) *Handler {
	return &Handler{ChatSvc: chatSvc, Events: events, Usage: usage}
}
