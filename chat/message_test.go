package chat

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildContent_NoAttachments(t *testing.T) {
	c := BuildContent("hello world", nil)

	if !c.IsPlain() {
		t.Errorf("Content without attachments should be plain, got parts: %v", c.Parts)
	}
	if c.Text != "hello world" {
		t.Errorf("Expected text 'hello world', got: %s", c.Text)
	}
}

func TestBuildContent_WithAttachments(t *testing.T) {
	images := []ImageAttachment{
		{Filename: "t1_abc.png", OriginalName: "cat.png"},
		{Filename: "t1_def.jpeg", OriginalName: "dog.jpg"},
	}
	c := BuildContent("look at these", images)

	if c.IsPlain() {
		t.Fatal("Content with attachments should be structured")
	}
	if len(c.Parts) != 3 {
		t.Fatalf("Expected 3 parts (1 text + 2 images), got %d", len(c.Parts))
	}
	if c.Parts[0].Type != PartText || c.Parts[0].Text != "look at these" {
		t.Errorf("First part should be the text part, got: %+v", c.Parts[0])
	}
	if c.Parts[1].Filename != "t1_abc.png" || c.Parts[2].Filename != "t1_def.jpeg" {
		t.Errorf("Image parts should preserve upload order, got: %+v", c.Parts[1:])
	}
}

func TestContent_JSONRoundTrip_Plain(t *testing.T) {
	c := PlainText("just a string")

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"just a string"` {
		t.Errorf("Plain content should serialize as a bare string, got: %s", data)
	}

	var decoded Content
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.IsPlain() || decoded.Text != "just a string" {
		t.Errorf("Round trip changed content: %+v", decoded)
	}
}

func TestContent_JSONRoundTrip_Structured(t *testing.T) {
	c := BuildContent("prompt", []ImageAttachment{
		{Filename: "t1_abc.png", OriginalName: "photo.png"},
	})

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "[") {
		t.Errorf("Structured content should serialize as an array, got: %s", data)
	}

	var decoded Content
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.IsPlain() {
		t.Fatal("Decoded content lost its structured form")
	}
	if len(decoded.Parts) != 2 {
		t.Fatalf("Expected 2 parts after round trip, got %d", len(decoded.Parts))
	}
	if decoded.Parts[1].OriginalName != "photo.png" {
		t.Errorf("Image part lost its original name: %+v", decoded.Parts[1])
	}
}

func TestContent_UnmarshalRejectsUnknownPartType(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`[{"type":"video","text":"x"}]`), &c)
	if err == nil {
		t.Error("Unknown part type should be rejected")
	}
}

func TestContent_UnmarshalRejectsNonContentJSON(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`{"type":"text"}`), &c)
	if err == nil {
		t.Error("An object is neither a string nor a part list and should be rejected")
	}
}

func TestContent_PlainString(t *testing.T) {
	c := BuildContent("describe", []ImageAttachment{
		{Filename: "t1_abc.png", OriginalName: "sunset.png"},
	})

	flat := c.PlainString()
	if !strings.Contains(flat, "describe") {
		t.Errorf("Flattened content should contain the text, got: %s", flat)
	}
	if !strings.Contains(flat, "[Image: sunset.png]") {
		t.Errorf("Image parts should flatten to a marker, got: %s", flat)
	}
}

func TestMessage_Validate(t *testing.T) {
	good := NewUserMessage("hi", nil)
	if err := good.Validate(); err != nil {
		t.Errorf("Valid message rejected: %v", err)
	}

	badRole := Message{Role: "observer", Content: PlainText("hi")}
	if err := badRole.Validate(); err == nil {
		t.Error("Unknown role should fail validation")
	}

	missingFile := Message{
		Role:    RoleUser,
		Content: Content{Parts: []Part{{Type: PartImage}}},
	}
	if err := missingFile.Validate(); err == nil {
		t.Error("Image part without a filename should fail validation")
	}
}

func TestMessage_ImageFilenames(t *testing.T) {
	msg := NewUserMessage("two images", []ImageAttachment{
		{Filename: "t1_a.png"},
		{Filename: "t1_b.png"},
	})

	names := msg.ImageFilenames()
	if len(names) != 2 || names[0] != "t1_a.png" || names[1] != "t1_b.png" {
		t.Errorf("Expected [t1_a.png t1_b.png], got: %v", names)
	}

	if names := NewAssistantMessage("text only").ImageFilenames(); len(names) != 0 {
		t.Errorf("Plain message should reference no images, got: %v", names)
	}
}
