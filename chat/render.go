package chat

// InstructionKind tells the rendering surface what to draw
type InstructionKind string

const (
	ShowText  InstructionKind = "text"
	ShowImage InstructionKind = "image"
)

// DisplayInstruction is one rendering step for a display collaborator.
// The core never draws anything itself; it only emits these.
type DisplayInstruction struct {
	Kind      InstructionKind
	Text      string // set when Kind == ShowText
	ImagePath string // set when Kind == ShowImage
	Caption   string // user-facing name of the image
}

// PathResolver maps a stored attachment filename to a local path,
// reporting false when the file is gone
type PathResolver func(filename string) (string, bool)

// Render converts message content into ordered display instructions.
// Image parts whose backing file no longer exists are skipped; rendering
// never fails.
func Render(c Content, resolve PathResolver) []DisplayInstruction {
	if c.IsPlain() {
		return []DisplayInstruction{{Kind: ShowText, Text: c.Text}}
	}

	var out []DisplayInstruction
	for _, part := range c.Parts {
		switch part.Type {
		case PartText:
			out = append(out, DisplayInstruction{Kind: ShowText, Text: part.Text})
		case PartImage:
			if resolve == nil {
				continue
			}
			path, ok := resolve(part.Filename)
			if !ok {
				continue
			}
			out = append(out, DisplayInstruction{
				Kind:      ShowImage,
				ImagePath: path,
				Caption:   part.DisplayName(),
			})
		}
	}
	return out
}
