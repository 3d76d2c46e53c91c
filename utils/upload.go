package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	_ "image/gif"

	"github.com/nfnt/resize"

	"llm-chat-studio/chat"
	"llm-chat-studio/store"
)

// UploadedFile is a file attached during message composition
type UploadedFile struct {
	Name string
	Data []byte
}

// UploadPipeline turns uploaded files into message inputs: PDFs and
// text files are folded into the prompt text, images are downscaled if
// oversized and stored content-addressed under the thread id
type UploadPipeline struct {
	images       *store.ImageStore
	maxFileSize  int64
	maxImageSize uint // longest edge in pixels
	imageQuality int  // JPEG quality (1-100)
}

// NewUploadPipeline creates a pipeline with default limits
func NewUploadPipeline(images *store.ImageStore) *UploadPipeline {
	return &UploadPipeline{
		images:       images,
		maxFileSize:  10 * 1024 * 1024, // 10MB
		maxImageSize: 1024,
		imageQuality: 85,
	}
}

// Process folds the uploaded files into the prompt and returns the
// display prompt plus the stored image attachments, preserving upload
// order. Non-decodable text content is replaced by a placeholder note
// instead of being inlined.
func (p *UploadPipeline) Process(prompt string, files []UploadedFile, threadID string) (string, []chat.ImageAttachment, error) {
	displayPrompt := prompt
	var attachments []chat.ImageAttachment

	for _, file := range files {
		if int64(len(file.Data)) > p.maxFileSize {
			return "", nil, fmt.Errorf("file %s too large: %d bytes (max %d)", file.Name, len(file.Data), p.maxFileSize)
		}

		mimeType := detectMimeType(file.Name, file.Data)
		switch {
		case mimeType == "application/pdf":
			text, err := ExtractPDFText(file.Data)
			if err != nil {
				return "", nil, fmt.Errorf("failed to read PDF %s: %w", file.Name, err)
			}
			displayPrompt += fmt.Sprintf("\nAttached PDF file '%s':\n%s", file.Name, text)

		case strings.HasPrefix(mimeType, "image/"):
			att, err := p.storeImage(file, threadID)
			if err != nil {
				return "", nil, err
			}
			attachments = append(attachments, att)

		default:
			if utf8.Valid(file.Data) {
				displayPrompt += fmt.Sprintf("\nAttached text file '%s':\n%s", file.Name, string(file.Data))
			} else {
				displayPrompt += fmt.Sprintf("\nAttached binary file '%s':\n[Binary content encoded in base64]", file.Name)
			}
		}
	}

	return displayPrompt, attachments, nil
}

// storeImage downscales an oversized image and persists it
func (p *UploadPipeline) storeImage(file UploadedFile, threadID string) (chat.ImageAttachment, error) {
	img, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return chat.ImageAttachment{}, fmt.Errorf("failed to decode image %s: %w", file.Name, err)
	}

	data := file.Data
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width > p.maxImageSize || height > p.maxImageSize {
		if width > height {
			img = resize.Resize(p.maxImageSize, 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, p.maxImageSize, img, resize.Lanczos3)
		}

		var buf bytes.Buffer
		switch format {
		case "png":
			err = png.Encode(&buf, img)
		default:
			err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.imageQuality})
		}
		if err != nil {
			return chat.ImageAttachment{}, fmt.Errorf("failed to encode image %s: %w", file.Name, err)
		}
		data = buf.Bytes()
	}

	filename, err := p.images.Put(data, threadID)
	if err != nil {
		return chat.ImageAttachment{}, fmt.Errorf("failed to store image %s: %w", file.Name, err)
	}
	return chat.ImageAttachment{Filename: filename, OriginalName: file.Name}, nil
}

// detectMimeType resolves the MIME type from the extension, falling
// back to content sniffing
func detectMimeType(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	mimeType := mime.TypeByExtension(ext)
	if mimeType != "" {
		if idx := strings.Index(mimeType, ";"); idx > 0 {
			mimeType = mimeType[:idx]
		}
		return mimeType
	}
	return http.DetectContentType(data)
}
