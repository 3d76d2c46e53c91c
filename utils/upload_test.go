package utils

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"llm-chat-studio/store"
)

func newTestPipeline(t *testing.T) (*UploadPipeline, *store.ImageStore) {
	t.Helper()
	images, err := store.NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore failed: %v", err)
	}
	return NewUploadPipeline(images), images
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestUploadPipeline_TextFileFoldsIntoPrompt(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	files := []UploadedFile{{Name: "notes.txt", Data: []byte("remember the milk")}}
	prompt, attachments, err := pipeline.Process("summarize this", files, "thread1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !strings.Contains(prompt, "summarize this") {
		t.Errorf("Original prompt should survive, got: %q", prompt)
	}
	if !strings.Contains(prompt, "notes.txt") || !strings.Contains(prompt, "remember the milk") {
		t.Errorf("Text file content should fold into the prompt, got: %q", prompt)
	}
	if len(attachments) != 0 {
		t.Errorf("Text files should not become attachments, got: %v", attachments)
	}
}

func TestUploadPipeline_BinaryFileGetsPlaceholder(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	files := []UploadedFile{{Name: "blob.bin", Data: []byte{0xff, 0xfe, 0x00, 0x81}}}
	prompt, _, err := pipeline.Process("what is this", files, "thread1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !strings.Contains(prompt, "[Binary content encoded in base64]") {
		t.Errorf("Binary content should be replaced by a placeholder, got: %q", prompt)
	}
}

func TestUploadPipeline_ImageIsStored(t *testing.T) {
	pipeline, images := newTestPipeline(t)

	files := []UploadedFile{{Name: "photo.png", Data: encodePNG(t, 64, 64)}}
	prompt, attachments, err := pipeline.Process("describe", files, "thread1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if prompt != "describe" {
		t.Errorf("Images should not alter the prompt text, got: %q", prompt)
	}
	if len(attachments) != 1 {
		t.Fatalf("Expected 1 attachment, got %d", len(attachments))
	}
	if attachments[0].OriginalName != "photo.png" {
		t.Errorf("Attachment should keep the original name, got: %s", attachments[0].OriginalName)
	}
	if _, err := images.Get(attachments[0].Filename); err != nil {
		t.Errorf("Stored attachment should be readable: %v", err)
	}
}

func TestUploadPipeline_OversizedImageIsDownscaled(t *testing.T) {
	pipeline, images := newTestPipeline(t)
	pipeline.maxImageSize = 32

	files := []UploadedFile{{Name: "big.png", Data: encodePNG(t, 100, 50)}}
	_, attachments, err := pipeline.Process("", files, "thread1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	data, err := images.Get(attachments[0].Filename)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Stored image should decode: %v", err)
	}
	if img.Bounds().Dx() != 32 {
		t.Errorf("Longest edge should shrink to the limit, got width %d", img.Bounds().Dx())
	}
	if img.Bounds().Dy() >= 32 {
		t.Errorf("Aspect ratio should be preserved, got height %d", img.Bounds().Dy())
	}
}

func TestUploadPipeline_RejectsOversizedFiles(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	pipeline.maxFileSize = 8

	files := []UploadedFile{{Name: "big.txt", Data: []byte("way past the size limit")}}
	if _, _, err := pipeline.Process("", files, "thread1"); err == nil {
		t.Error("Files over the size limit should be rejected")
	}
}
