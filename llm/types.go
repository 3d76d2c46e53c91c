package llm

import (
	"context"

	"llm-chat-studio/chat"
)

// StreamResponse is one chunk of a streaming chat completion
type StreamResponse struct {
	Content string
	Done    bool
	Error   error
}

// ImageOptions carries the generation parameters exposed to the user
type ImageOptions struct {
	Size    string // e.g. "1024x1024"
	Quality string // "standard" or "hd"
	Count   int    // number of images in a batch
}

// Provider is the contract against the hosted completion API. A stream
// is finite and not restartable; a retry needs a new call.
type Provider interface {
	// StreamChat sends the role-tagged request and returns a channel of
	// incremental chunks, closed after Done or an error
	StreamChat(ctx context.Context, messages []chat.Message) (<-chan StreamResponse, error)

	// GenerateImage issues one image-generation call and returns the
	// image bytes
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error)

	// EditImage regenerates the masked region of an image from a prompt.
	// The mask must match the image dimensions, black marking the region
	// to repaint.
	EditImage(ctx context.Context, image, mask []byte, prompt string, opts ImageOptions) ([]byte, error)

	// Name returns the provider name
	Name() string
}

// AttachmentResolver maps a stored attachment filename to its bytes.
// An error means the attachment is unavailable; wire conversion drops
// the item instead of failing the whole message.
type AttachmentResolver func(filename string) ([]byte, error)

// Config represents provider configuration
type Config struct {
	ProviderName string
	APIKey       string
	BaseURL      string
	Model        string
	ImageModel   string
	EditModel    string
	MaxTokens    int
	Temperature  float64
}
