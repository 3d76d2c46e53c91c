package llm

import (
	"errors"
	"strings"
	"testing"

	"llm-chat-studio/chat"
)

func newTestProvider(t *testing.T, resolve AttachmentResolver) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(Config{APIKey: "test-key"}, resolve)
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	return p
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{}, nil)
	if err == nil {
		t.Error("Provider without an API key should be rejected")
	}
}

func TestConvertMessage_PlainContent(t *testing.T) {
	p := newTestProvider(t, nil)

	converted := p.convertMessage(chat.NewUserMessage("hello", nil))

	if converted.Role != "user" {
		t.Errorf("Expected role user, got: %s", converted.Role)
	}
	if converted.Content != "hello" {
		t.Errorf("Plain content should stay a string, got: %q", converted.Content)
	}
	if converted.MultiContent != nil {
		t.Errorf("Plain content should not populate MultiContent: %+v", converted.MultiContent)
	}
}

func TestConvertMessage_StructuredContent(t *testing.T) {
	// Valid PNG header so content sniffing yields image/png
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	resolve := func(filename string) ([]byte, error) {
		return pngHeader, nil
	}
	p := newTestProvider(t, resolve)

	msg := chat.NewUserMessage("what is this", []chat.ImageAttachment{
		{Filename: "t1_a.png"},
		{Filename: "t1_b.png"},
	})
	converted := p.convertMessage(msg)

	if converted.Content != "" {
		t.Errorf("Structured content should not set the string field, got: %q", converted.Content)
	}
	if len(converted.MultiContent) != 3 {
		t.Fatalf("Expected 1 text + 2 image parts, got %d", len(converted.MultiContent))
	}
	if converted.MultiContent[0].Text != "what is this" {
		t.Errorf("Text part should come first, got: %+v", converted.MultiContent[0])
	}
	url := converted.MultiContent[1].ImageURL.URL
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("Image parts should become base64 data URLs, got prefix: %.40s", url)
	}
}

func TestConvertMessage_DropsUnresolvableImages(t *testing.T) {
	resolve := func(filename string) ([]byte, error) {
		return nil, errors.New("file gone")
	}
	p := newTestProvider(t, resolve)

	msg := chat.NewUserMessage("caption", []chat.ImageAttachment{{Filename: "missing.png"}})
	converted := p.convertMessage(msg)

	if len(converted.MultiContent) != 1 {
		t.Fatalf("Missing image should be dropped, leaving only the text part, got %d parts", len(converted.MultiContent))
	}
	if converted.MultiContent[0].Text != "caption" {
		t.Errorf("Surviving part should be the text, got: %+v", converted.MultiContent[0])
	}
}

func TestCountTokens_NeverZeroForText(t *testing.T) {
	n := CountTokens("a reasonably sized sentence for counting")
	if n <= 0 {
		t.Errorf("Expected a positive token count, got %d", n)
	}
}
