package rabbitmq

import (
	"encoding/json"
	"errors"
	"time"
)

// OutcomeAssistant marks an exchange that ended with a recorded assistant turn.
// Failed exchanges carry the chat error code instead.
const OutcomeAssistant = "assistant"

// ExchangeEvent describes the outcome of one chat.send call. It carries no
// message content.
type ExchangeEvent struct {
	UserID   string    `json:"user_id"`
	ModelTag string    `json:"model_tag"`
	Outcome  string    `json:"outcome"`
	At       time.Time `json:"at"`
}

func DecodeExchangeEvent(body []byte) (ExchangeEvent, error) {
	var ev ExchangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ExchangeEvent{}, err
	}
	if ev.UserID == "" || ev.Outcome == "" {
		return ExchangeEvent{}, errors.New("exchange event missing user_id or outcome")
	}
	return ev, nil
}
