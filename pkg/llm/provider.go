package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model reply carries no text block.
// Callers treat this the same as a transport failure: the turn is aborted.
var ErrEmptyResponse = errors.New("llm: model returned no text content")

// Block is one piece of message content. Text blocks carry Text; image and
// document blocks carry base64 Data plus its MediaType (attachments are
// inlined, never referenced by URL).
type Block struct {
	Type      string // "text", "image", "document"
	Text      string
	MediaType string
	Data      string // base64 payload for image/document blocks
}

const (
	BlockTypeText     = "text"
	BlockTypeImage    = "image"
	BlockTypeDocument = "document"
)

// Message represents a chat message in a provider-agnostic format.
type Message struct {
	Role   string // "user" or "assistant"
	Blocks []Block
}

// Text builds a plain single-block text message.
func Text(role, text string) Message {
	return Message{Role: role, Blocks: []Block{{Type: BlockTypeText, Text: text}}}
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any LLM backend.
type Provider interface {
	// Chat sends a system prompt plus chat history to the model and returns
	// the text of the reply. An empty reply yields ErrEmptyResponse.
	Chat(ctx context.Context, system string, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt with no system instruction (convenience method).
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
