// Package session holds the per-session state the application mutates:
// the selected thread, the active behavior profile and the collaborators
// needed to turn user input into persisted turns and API calls. State
// is explicit here rather than global, so independent sessions can
// coexist.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/sync/errgroup"

	"llm-chat-studio/chat"
	"llm-chat-studio/db"
	"llm-chat-studio/llm"
	"llm-chat-studio/store"
	"llm-chat-studio/utils"
)

// maxBatchImages caps how many images one generation request may ask for
const maxBatchImages = 4

// Logger is the subset of the application logger the session uses
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Options wires a session together
type Options struct {
	Threads  *store.ThreadStore
	Images   *store.ImageStore
	Ledger   *store.Ledger
	Index    *db.DB // optional message index, may be nil
	Provider llm.Provider
	Uploads  *utils.UploadPipeline
	Logger   Logger
	Mode     string
	Modes    map[string]string // overrides for the built-in profiles
	Model    string            // recorded with indexed messages
	Image    llm.ImageOptions  // generation defaults
}

// Session is one user's interaction context
type Session struct {
	threads  *store.ThreadStore
	images   *store.ImageStore
	ledger   *store.Ledger
	index    *db.DB
	provider llm.Provider
	uploads  *utils.UploadPipeline
	logger   Logger

	mode     string
	modes    map[string]string
	model    string
	imageOpt llm.ImageOptions

	current *store.Thread
}

// New creates a session
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeDefault
	}
	return &Session{
		threads:  opts.Threads,
		images:   opts.Images,
		ledger:   opts.Ledger,
		index:    opts.Index,
		provider: opts.Provider,
		uploads:  opts.Uploads,
		logger:   logger,
		mode:     mode,
		modes:    opts.Modes,
		model:    opts.Model,
		imageOpt: opts.Image,
	}
}

// SetMode switches the active behavior profile
func (s *Session) SetMode(mode string) {
	s.mode = mode
}

// Mode returns the active behavior profile name
func (s *Session) Mode() string {
	return s.mode
}

// CurrentThread returns the selected thread, or nil when none is
func (s *Session) CurrentThread() *store.Thread {
	return s.current
}

// SelectThread makes an existing thread current
func (s *Session) SelectThread(id string) error {
	thread, err := s.threads.Get(id)
	if err != nil {
		return err
	}
	s.current = thread
	return nil
}

// NewThread creates a fresh thread and makes it current
func (s *Session) NewThread() (*store.Thread, error) {
	thread, err := s.threads.Create()
	if err != nil {
		return nil, err
	}
	s.current = thread
	return thread, nil
}

// EnsureThread returns the current thread, creating one implicitly when
// none is selected or the selected one has been deleted
func (s *Session) EnsureThread() (*store.Thread, error) {
	if s.current != nil {
		if thread, err := s.threads.Get(s.current.ID); err == nil {
			s.current = thread
			return thread, nil
		}
	}
	return s.NewThread()
}

// Threads lists all threads, most recently updated first
func (s *Session) Threads() ([]*store.Thread, error) {
	return s.threads.List()
}

// DeleteThread removes a thread, its attachments and its index rows
func (s *Session) DeleteThread(id string) error {
	if err := s.threads.Delete(id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteThread(id); err != nil {
			s.logger.Warn("Failed to drop index rows for thread %s: %v", id, err)
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	return nil
}

// BuildRequest assembles the ordered request payload for a thread: the
// active mode's system prompt first when it is non-empty, then every
// turn in append order
func (s *Session) BuildRequest(messages []chat.Message) []chat.Message {
	var request []chat.Message
	if prompt := SystemPrompt(s.mode, s.modes); prompt != "" {
		request = append(request, chat.Message{Role: chat.RoleSystem, Content: chat.PlainText(prompt)})
	}
	return append(request, messages...)
}

// Send runs one chat round: uploads are folded into the prompt, the
// full thread is re-serialized and streamed to the API, and both turns
// are persisted once the reply is complete. Each chunk is handed to
// onChunk as it arrives. A failed or cancelled stream persists nothing,
// leaving the thread as it was.
func (s *Session) Send(ctx context.Context, prompt string, files []utils.UploadedFile, onChunk func(string)) (string, error) {
	thread, err := s.EnsureThread()
	if err != nil {
		return "", err
	}

	displayPrompt := prompt
	var attachments []chat.ImageAttachment
	if len(files) > 0 {
		if s.uploads == nil {
			return "", errors.New("no upload pipeline configured")
		}
		displayPrompt, attachments, err = s.uploads.Process(prompt, files, thread.ID)
		if err != nil {
			return "", err
		}
	}

	userMsg := chat.NewUserMessage(displayPrompt, attachments)
	pending := make([]chat.Message, 0, len(thread.Messages)+1)
	pending = append(pending, thread.Messages...)
	pending = append(pending, userMsg)

	stream, err := s.provider.StreamChat(ctx, s.BuildRequest(pending))
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	done := false
	for resp := range stream {
		if resp.Error != nil {
			return "", resp.Error
		}
		if resp.Done {
			done = true
			break
		}
		reply.WriteString(resp.Content)
		if onChunk != nil {
			onChunk(resp.Content)
		}
	}
	if !done {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", errors.New("stream ended without completing")
	}

	// The reply is complete; only now does anything touch disk
	if _, err := s.threads.Append(thread.ID, userMsg); err != nil {
		return "", err
	}
	assistantMsg := chat.NewAssistantMessage(reply.String())
	updated, err := s.threads.Append(thread.ID, assistantMsg)
	if err != nil {
		return "", err
	}
	s.current = updated

	s.indexMessage(thread.ID, userMsg)
	s.indexMessage(thread.ID, assistantMsg)
	return reply.String(), nil
}

// indexMessage feeds the search/usage index; failures degrade to a log
// line, they never fail the chat round
func (s *Session) indexMessage(threadID string, msg chat.Message) {
	if s.index == nil {
		return
	}
	text := msg.Content.PlainString()
	if err := s.index.IndexMessage(threadID, string(msg.Role), text, s.model, llm.CountTokens(text)); err != nil {
		s.logger.Warn("Failed to index message for thread %s: %v", threadID, err)
	}
}

// GenerateImages expands the prompt with the selected modifier terms
// and fans out one generation call per requested image. The batch is
// all-or-nothing: any failed call aborts the rest and nothing reaches
// the ledger.
func (s *Session) GenerateImages(ctx context.Context, prompt string, sel ModifierSelection, opts llm.ImageOptions) (*store.GenerationRecord, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("empty generation prompt")
	}

	opts = s.fillImageOptions(opts)
	count := opts.Count
	if count < 1 {
		count = 1
	}
	if count > maxBatchImages {
		count = maxBatchImages
	}

	finalPrompt := ExpandPrompt(prompt, sel)

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]byte, count)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			data, err := s.provider.GenerateImage(gctx, finalPrompt, opts)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	record, err := s.ledger.RecordGeneration(finalPrompt, results)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Generated %d image(s) for prompt %q", count, prompt)
	return record, nil
}

// Inpaint repaints the selected rectangle of an image from a prompt and
// records the edit in the ledger
func (s *Session) Inpaint(ctx context.Context, original []byte, selection image.Rectangle, prompt string, opts llm.ImageOptions) (*store.InpaintingRecord, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("failed to decode original image: %w", err)
	}

	mask, err := utils.RectangleMask(cfg.Width, cfg.Height, selection)
	if err != nil {
		return nil, err
	}

	opts = s.fillImageOptions(opts)
	edited, err := s.provider.EditImage(ctx, original, mask, prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("inpainting failed: %w", err)
	}

	return s.ledger.RecordInpainting(prompt, original, edited)
}

// Generations returns the generation history, newest first
func (s *Session) Generations() ([]*store.GenerationRecord, error) {
	return s.ledger.ListGenerations()
}

// Inpaintings returns the inpainting history, newest first
func (s *Session) Inpaintings() ([]*store.InpaintingRecord, error) {
	return s.ledger.ListInpaintings()
}

// DeleteGeneration removes one generation and its artifacts from the
// history
func (s *Session) DeleteGeneration(id string) error {
	return s.ledger.DeleteGeneration(id)
}

// DeleteInpainting removes one inpainting and its artifacts from the
// history
func (s *Session) DeleteInpainting(id string) error {
	return s.ledger.DeleteInpainting(id)
}

// CompactIndex reclaims space in the message index file
func (s *Session) CompactIndex() error {
	if s.index == nil {
		return errors.New("search index not configured")
	}
	return s.index.Vacuum()
}

// Usage reports token usage over a time window from the message index
func (s *Session) Usage(start, end time.Time) (*db.UsageStats, error) {
	if s.index == nil {
		return nil, errors.New("search index not configured")
	}
	return s.index.GetUsageStats(start, end)
}

// Export renders a thread into a downloadable document
func (s *Session) Export(threadID string, format utils.ExportFormat) ([]byte, string, error) {
	thread, err := s.threads.Get(threadID)
	if err != nil {
		return nil, "", err
	}
	return utils.ExportThread(thread, format)
}

// Search runs a full-text query over the message index
func (s *Session) Search(query string, limit int) ([]*db.SearchResult, error) {
	if s.index == nil {
		return nil, errors.New("search index not configured")
	}
	return s.index.SearchMessages(query, limit)
}

func (s *Session) fillImageOptions(opts llm.ImageOptions) llm.ImageOptions {
	if opts.Size == "" {
		opts.Size = s.imageOpt.Size
	}
	if opts.Quality == "" {
		opts.Quality = s.imageOpt.Quality
	}
	if opts.Count == 0 {
		opts.Count = s.imageOpt.Count
	}
	return opts
}
