package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"llm-chat-studio/chat"
)

// ErrThreadNotFound is returned when no thread exists for an id
var ErrThreadNotFound = errors.New("thread not found")

// DefaultEmptyThreadTTL is how long an empty thread may sit idle before
// Sweep garbage-collects it
const DefaultEmptyThreadTTL = 2 * time.Minute

// Thread is one persisted conversation: an opaque unique id, the
// ordered turns, and the time of the most recent append
type Thread struct {
	ID          string         `json:"id"`
	LastUpdated time.Time      `json:"last_updated"`
	Messages    []chat.Message `json:"messages"`
}

// Preview returns a short label for thread listings
func (t *Thread) Preview() string {
	if len(t.Messages) == 0 {
		return "Empty thread"
	}
	content := t.Messages[0].Content
	if !content.IsPlain() {
		return "Image thread"
	}
	// Truncate on runes so multi-byte text is never cut mid-character
	runes := []rune(content.Text)
	if len(runes) > 30 {
		return string(runes[:30]) + "..."
	}
	return content.Text
}

// ThreadStore owns the thread records on disk, one JSON file per
// thread. It is the only writer of those files; every mutation is an
// atomic whole-file rewrite.
type ThreadStore struct {
	dir      string
	images   *ImageStore
	logger   Logger
	emptyTTL time.Duration
}

// NewThreadStore creates a store rooted at dir. Deleting a thread
// cascades into images, removing the attachments it owns.
func NewThreadStore(dir string, images *ImageStore, logger Logger) (*ThreadStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thread directory: %w", err)
	}
	return &ThreadStore{
		dir:      dir,
		images:   images,
		logger:   orNop(logger),
		emptyTTL: DefaultEmptyThreadTTL,
	}, nil
}

// Create allocates a fresh empty thread and persists it immediately so
// the id is durable and shows up in listings
func (s *ThreadStore) Create() (*Thread, error) {
	thread := &Thread{
		ID:          uuid.NewString(),
		LastUpdated: time.Now(),
		Messages:    []chat.Message{},
	}
	if err := s.save(thread); err != nil {
		return nil, err
	}
	s.logger.Info("Created thread %s", thread.ID)
	return thread, nil
}

// Get loads a thread by id
func (s *ThreadStore) Get(id string) (*Thread, error) {
	return s.load(s.path(id))
}

// Append adds a message to a thread, refreshes its timestamp and
// rewrites the record
func (s *ThreadStore) Append(id string, msg chat.Message) (*Thread, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	thread, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	thread.Messages = append(thread.Messages, msg)
	thread.LastUpdated = time.Now()
	if err := s.save(thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// List returns all threads, most recently updated first. It sweeps
// abandoned empty threads first, so callers always see a pruned view;
// listing is deliberately not side-effect-free.
func (s *ThreadStore) List() ([]*Thread, error) {
	if _, err := s.Sweep(); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan thread directory: %w", err)
	}

	var threads []*Thread
	for _, path := range paths {
		thread, err := s.load(path)
		if err != nil {
			// One corrupt record must not take down the whole listing
			s.logger.Warn("Skipping unreadable thread file %s: %v", path, err)
			continue
		}
		threads = append(threads, thread)
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastUpdated.After(threads[j].LastUpdated)
	})
	return threads, nil
}

// Sweep deletes threads that have no messages and have been idle longer
// than the empty-thread TTL, returning how many were removed
func (s *ThreadStore) Sweep() (int, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to scan thread directory: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-s.emptyTTL)
	for _, path := range paths {
		thread, err := s.load(path)
		if err != nil {
			continue
		}
		if len(thread.Messages) == 0 && thread.LastUpdated.Before(cutoff) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("Failed to remove empty thread %s: %v", thread.ID, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Swept %d abandoned empty thread(s)", removed)
	}
	return removed, nil
}

// Delete removes a thread record and every attachment it references
func (s *ThreadStore) Delete(id string) error {
	thread, err := s.Get(id)
	if err != nil {
		if errors.Is(err, ErrThreadNotFound) {
			return nil
		}
		return err
	}

	if s.images != nil {
		if err := s.images.DeleteNamespace(thread.ID); err != nil {
			return fmt.Errorf("failed to delete thread attachments: %w", err)
		}
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete thread file: %w", err)
	}
	s.logger.Info("Deleted thread %s", id)
	return nil
}

func (s *ThreadStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *ThreadStore) load(path string) (*Thread, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read thread file: %w", err)
	}

	var thread Thread
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil, fmt.Errorf("failed to parse thread file: %w", err)
	}
	if thread.ID == "" {
		return nil, errors.New("thread record is missing an id")
	}
	for i, msg := range thread.Messages {
		if err := msg.Validate(); err != nil {
			return nil, fmt.Errorf("thread message %d: %w", i, err)
		}
	}
	return &thread, nil
}

func (s *ThreadStore) save(thread *Thread) error {
	data, err := json.MarshalIndent(thread, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal thread: %w", err)
	}
	if err := writeFileAtomic(s.path(thread.ID), data); err != nil {
		return fmt.Errorf("failed to save thread %s: %w", thread.ID, err)
	}
	return nil
}
