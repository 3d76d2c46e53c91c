package chat

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRole reports whether r is one of the known roles
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// PartType identifies the kind of a content part
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image_url"
)

// Part is one item of structured message content: either a text block
// or a reference to a stored image by filename
type Part struct {
	Type         PartType `json:"type"`
	Text         string   `json:"text,omitempty"`
	Filename     string   `json:"filename,omitempty"`
	OriginalName string   `json:"original_name,omitempty"`
}

// ImageAttachment describes an uploaded image already persisted in the
// image store. Filename is the content-addressed name, OriginalName the
// user-facing one.
type ImageAttachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
}

// Content is the message body. It has exactly two forms: a plain string
// (Parts == nil) or an ordered list of parts. The JSON encoding matches:
// plain content serializes as a bare string, structured content as an
// array of part objects.
type Content struct {
	Text  string
	Parts []Part
}

// PlainText creates plain string content
func PlainText(text string) Content {
	return Content{Text: text}
}

// IsPlain reports whether the content is the plain string form
func (c Content) IsPlain() bool {
	return c.Parts == nil
}

// BuildContent combines a prompt and its image attachments into message
// content. Without attachments the content collapses to the plain string
// form; otherwise the text part comes first, followed by one image part
// per attachment in upload order.
func BuildContent(text string, images []ImageAttachment) Content {
	if len(images) == 0 {
		return PlainText(text)
	}

	parts := make([]Part, 0, len(images)+1)
	parts = append(parts, Part{Type: PartText, Text: text})
	for _, img := range images {
		parts = append(parts, Part{
			Type:         PartImage,
			Filename:     img.Filename,
			OriginalName: img.OriginalName,
		})
	}
	return Content{Parts: parts}
}

// PlainString flattens the content to text for previews and exports.
// Image parts become a "[Image: name]" marker.
func (c Content) PlainString() string {
	if c.IsPlain() {
		return c.Text
	}

	var out string
	for i, part := range c.Parts {
		if i > 0 {
			out += " "
		}
		switch part.Type {
		case PartText:
			out += part.Text
		case PartImage:
			out += fmt.Sprintf("[Image: %s]", part.DisplayName())
		}
	}
	return out
}

// DisplayName returns the user-facing name of an image part
func (p Part) DisplayName() string {
	if p.OriginalName != "" {
		return p.OriginalName
	}
	return "uploaded_image"
}

// MarshalJSON encodes plain content as a JSON string and structured
// content as an array of parts
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsPlain() {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts either form and rejects anything else, so a
// malformed persisted record fails at load time instead of later
func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.Parts = nil
		return nil
	}

	var parts []Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or a part list: %w", err)
	}
	for i, part := range parts {
		if part.Type != PartText && part.Type != PartImage {
			return fmt.Errorf("content part %d has unknown type %q", i, part.Type)
		}
	}
	c.Text = ""
	c.Parts = parts
	return nil
}

// Message is a single conversational turn. Role is fixed at creation and
// content is never edited once the message has been persisted.
type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// NewUserMessage creates a user turn from a prompt and its attachments
func NewUserMessage(text string, images []ImageAttachment) Message {
	return Message{Role: RoleUser, Content: BuildContent(text, images)}
}

// NewAssistantMessage creates an assistant turn with plain text content
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: PlainText(text)}
}

// Validate checks the invariants a persisted message must satisfy
func (m Message) Validate() error {
	if !ValidRole(m.Role) {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	for i, part := range m.Content.Parts {
		switch part.Type {
		case PartText:
		case PartImage:
			if part.Filename == "" {
				return fmt.Errorf("image part %d is missing a filename", i)
			}
		default:
			return fmt.Errorf("content part %d has unknown type %q", i, part.Type)
		}
	}
	return nil
}

// ImageFilenames lists the stored filenames referenced by the message
func (m Message) ImageFilenames() []string {
	var names []string
	for _, part := range m.Content.Parts {
		if part.Type == PartImage && part.Filename != "" {
			names = append(names, part.Filename)
		}
	}
	return names
}
