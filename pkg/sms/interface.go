package sms

import (
	"context"
	"errors"
)

var (
	ErrMissingRecipient = errors.New("sms recipient is required")
	ErrEmptyMessage     = errors.New("sms body is required")
)

// Provider sends a single text message.
type Provider interface {
	Send(ctx context.Context, message *Message) (*Receipt, error)
	Name() string
}

type MessageType string

const (
	MessageTypeTransactional MessageType = "transactional"
	MessageTypePromotional   MessageType = "promotional"
)

type Message struct {
	To   string      `json:"to"`
	From string      `json:"from,omitempty"`
	Body string      `json:"body"`
	Type MessageType `json:"type"`
}

type Receipt struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func (m *Message) validate() error {
	if m.To == "" {
		return ErrMissingRecipient
	}
	if m.Body == "" {
		return ErrEmptyMessage
	}
	return nil
}
