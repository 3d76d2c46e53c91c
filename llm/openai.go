package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sashabaranov/go-openai"

	"llm-chat-studio/chat"
)

// OpenAIProvider implements the Provider interface against the OpenAI
// API: streaming chat completions, DALL-E generation and DALL-E edits
type OpenAIProvider struct {
	client  *openai.Client
	config  Config
	resolve AttachmentResolver
}

// NewOpenAIProvider creates a provider. The resolver supplies attachment
// bytes when a thread is re-serialized for the API.
func NewOpenAIProvider(config Config, resolve AttachmentResolver) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Model == "" {
		config.Model = openai.GPT4o
	}
	if config.ImageModel == "" {
		config.ImageModel = openai.CreateImageModelDallE3
	}
	if config.EditModel == "" {
		config.EditModel = openai.CreateImageModelDallE2
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.ProviderName == "" {
		config.ProviderName = "OpenAI"
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		resolve: resolve,
	}, nil
}

// StreamChat implements streaming chat
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []chat.Message) (<-chan StreamResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    p.convertMessages(messages),
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
		Stream:      true,
	}

	responseChan := make(chan StreamResponse)
	go func() {
		defer close(responseChan)

		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			responseChan <- StreamResponse{Error: fmt.Errorf("failed to create stream: %w", err)}
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				responseChan <- StreamResponse{Done: true}
				return
			}
			if err != nil {
				responseChan <- StreamResponse{Error: fmt.Errorf("stream error: %w", err)}
				return
			}

			if len(response.Choices) > 0 {
				content := response.Choices[0].Delta.Content
				if content != "" {
					responseChan <- StreamResponse{Content: content}
				}
			}
		}
	}()

	return responseChan, nil
}

func (p *OpenAIProvider) convertMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, p.convertMessage(msg))
	}
	return out
}

// convertMessage converts a stored message into the API shape. Plain
// content stays a string; structured content becomes ordered text and
// base64 image parts. An image whose bytes cannot be resolved is
// dropped rather than failing the whole message.
func (p *OpenAIProvider) convertMessage(msg chat.Message) openai.ChatCompletionMessage {
	if msg.Content.IsPlain() {
		return openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content.Text,
		}
	}

	var multiContent []openai.ChatMessagePart
	for _, part := range msg.Content.Parts {
		switch part.Type {
		case chat.PartText:
			multiContent = append(multiContent, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text,
			})
		case chat.PartImage:
			if p.resolve == nil {
				continue
			}
			data, err := p.resolve(part.Filename)
			if err != nil {
				continue
			}
			b64 := base64.StdEncoding.EncodeToString(data)
			dataURL := fmt.Sprintf("data:%s;base64,%s", http.DetectContentType(data), b64)
			multiContent = append(multiContent, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				},
			})
		}
	}

	return openai.ChatCompletionMessage{
		Role:         string(msg.Role),
		MultiContent: multiContent,
	}
}

// GenerateImage issues one DALL-E generation call
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	req := openai.ImageRequest{
		Model:          p.config.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           imageSize(opts.Size),
		Quality:        imageQuality(opts.Quality),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}

	resp, err := p.client.CreateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no image in generation response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated image: %w", err)
	}
	return data, nil
}

// EditImage repaints the masked region of an image. The API takes file
// handles, so both inputs go through temporary files.
func (p *OpenAIProvider) EditImage(ctx context.Context, image, mask []byte, prompt string, opts ImageOptions) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "image-edit")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imageFile, err := writeTempPNG(filepath.Join(tmpDir, "image.png"), image)
	if err != nil {
		return nil, err
	}
	defer imageFile.Close()

	maskFile, err := writeTempPNG(filepath.Join(tmpDir, "mask.png"), mask)
	if err != nil {
		return nil, err
	}
	defer maskFile.Close()

	req := openai.ImageEditRequest{
		Image:          imageFile,
		Mask:           maskFile,
		Prompt:         prompt,
		Model:          p.config.EditModel,
		N:              1,
		Size:           imageSize(opts.Size),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}

	resp, err := p.client.CreateEditImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to edit image: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no image in edit response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode edited image: %w", err)
	}
	return data, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.config.ProviderName
}

func writeTempPNG(path string, data []byte) (*os.File, error) {
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open temp image: %w", err)
	}
	return file, nil
}

func imageSize(size string) string {
	if size == "" {
		return openai.CreateImageSize1024x1024
	}
	return size
}

func imageQuality(quality string) string {
	if quality == "hd" {
		return openai.CreateImageQualityHD
	}
	return openai.CreateImageQualityStandard
}
