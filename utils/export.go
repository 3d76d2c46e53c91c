package utils

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"llm-chat-studio/chat"
	"llm-chat-studio/store"
)

// ExportFormat represents the export format
type ExportFormat string

const (
	FormatText     ExportFormat = "txt"
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "md"
	FormatCSV      ExportFormat = "csv"
)

// ExportThread renders a thread into a downloadable document. The view
// is read-only; the thread itself is never touched. An unknown format
// is an invalid-argument error.
func ExportThread(thread *store.Thread, format ExportFormat) ([]byte, string, error) {
	filename := fmt.Sprintf("chat_export_%s.%s", time.Now().Format("20060102_150405"), format)

	var content []byte
	var err error
	switch format {
	case FormatText:
		content = exportText(thread)
	case FormatJSON:
		content, err = json.MarshalIndent(thread, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal thread: %w", err)
		}
	case FormatMarkdown:
		content = exportMarkdown(thread)
	case FormatCSV:
		content, err = exportCSV(thread)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}

	return content, filename, nil
}

func exportText(thread *store.Thread) []byte {
	var sb strings.Builder
	sb.WriteString("=== Chat Export ===\n")
	sb.WriteString(fmt.Sprintf("Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	for _, msg := range thread.Messages {
		sb.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(string(msg.Role))))
		if msg.Content.IsPlain() {
			sb.WriteString(msg.Content.Text + "\n")
		} else {
			for _, part := range msg.Content.Parts {
				switch part.Type {
				case chat.PartText:
					sb.WriteString(part.Text + "\n")
				case chat.PartImage:
					sb.WriteString(fmt.Sprintf("[Image: %s]\n", part.DisplayName()))
				}
			}
		}
		sb.WriteString("\n" + strings.Repeat("-", 50) + "\n\n")
	}
	return []byte(sb.String())
}

func exportMarkdown(thread *store.Thread) []byte {
	var sb strings.Builder
	sb.WriteString("# Chat Export\n\n")
	sb.WriteString(fmt.Sprintf("*Generated on: %s*\n\n", time.Now().Format("2006-01-02 15:04:05")))

	for _, msg := range thread.Messages {
		sb.WriteString(fmt.Sprintf("### %s\n\n", titleCase(string(msg.Role))))
		if msg.Content.IsPlain() {
			sb.WriteString(msg.Content.Text + "\n\n")
		} else {
			for _, part := range msg.Content.Parts {
				switch part.Type {
				case chat.PartText:
					sb.WriteString(part.Text + "\n\n")
				case chat.PartImage:
					sb.WriteString(fmt.Sprintf("![%s]\n\n", part.DisplayName()))
				}
			}
		}
		sb.WriteString("---\n\n")
	}
	return []byte(sb.String())
}

func exportCSV(thread *store.Thread) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Timestamp", "Role", "Content"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, msg := range thread.Messages {
		// Newlines flattened so one message stays one row
		content := strings.ReplaceAll(msg.Content.PlainString(), "\n", " ")
		row := []string{
			thread.LastUpdated.Format(time.RFC3339),
			string(msg.Role),
			content,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
