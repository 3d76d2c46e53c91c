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
)

// GenerationRecord is the persisted result of one batch image
// generation: the fully expanded prompt and the artifact files it
// produced, in request order
type GenerationRecord struct {
	ID         string    `json:"id"`
	Prompt     string    `json:"prompt"`
	ImagePaths []string  `json:"image_paths"`
	Timestamp  time.Time `json:"timestamp"`
}

// InpaintingRecord is the persisted result of one image edit: the
// original, the edited output and the prompt that drove the edit
type InpaintingRecord struct {
	ID                 string    `json:"id"`
	Prompt             string    `json:"prompt"`
	OriginalImagePath  string    `json:"original_image_path"`
	InpaintedImagePath string    `json:"inpainted_image_path"`
	Timestamp          time.Time `json:"timestamp"`
}

// Ledger is the append-only history of generation and inpainting jobs,
// independent of any conversation thread. Each record is a JSON file
// next to an id-named folder holding the raw artifacts.
type Ledger struct {
	generatedDir  string
	inpaintingDir string
	logger        Logger
}

// NewLedger creates both history directories
func NewLedger(generatedDir, inpaintingDir string, logger Logger) (*Ledger, error) {
	for _, dir := range []string{generatedDir, inpaintingDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return &Ledger{
		generatedDir:  generatedDir,
		inpaintingDir: inpaintingDir,
		logger:        orNop(logger),
	}, nil
}

// RecordGeneration writes the artifacts of one successful batch under a
// fresh id and persists the metadata record. Artifacts and record agree
// in count by construction.
func (l *Ledger) RecordGeneration(prompt string, artifacts [][]byte) (*GenerationRecord, error) {
	if len(artifacts) == 0 {
		return nil, errors.New("no artifacts to record")
	}

	id := uuid.NewString()
	folder := filepath.Join(l.generatedDir, id)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact folder: %w", err)
	}

	record := &GenerationRecord{
		ID:         id,
		Prompt:     prompt,
		ImagePaths: make([]string, 0, len(artifacts)),
		Timestamp:  time.Now(),
	}
	for i, data := range artifacts {
		path := filepath.Join(folder, fmt.Sprintf("%d.png", i))
		if err := writeFileAtomic(path, data); err != nil {
			os.RemoveAll(folder)
			return nil, fmt.Errorf("failed to write artifact %d: %w", i, err)
		}
		record.ImagePaths = append(record.ImagePaths, path)
	}

	if err := l.saveRecord(filepath.Join(l.generatedDir, id+".json"), record); err != nil {
		os.RemoveAll(folder)
		return nil, err
	}
	l.logger.Info("Recorded generation %s with %d image(s)", id, len(artifacts))
	return record, nil
}

// RecordInpainting writes one original and one edited artifact plus the
// metadata record
func (l *Ledger) RecordInpainting(prompt string, original, edited []byte) (*InpaintingRecord, error) {
	id := uuid.NewString()
	folder := filepath.Join(l.inpaintingDir, id)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create inpainting folder: %w", err)
	}

	record := &InpaintingRecord{
		ID:                 id,
		Prompt:             prompt,
		OriginalImagePath:  filepath.Join(folder, "original.png"),
		InpaintedImagePath: filepath.Join(folder, "inpainted.png"),
		Timestamp:          time.Now(),
	}
	if err := writeFileAtomic(record.OriginalImagePath, original); err != nil {
		os.RemoveAll(folder)
		return nil, fmt.Errorf("failed to write original image: %w", err)
	}
	if err := writeFileAtomic(record.InpaintedImagePath, edited); err != nil {
		os.RemoveAll(folder)
		return nil, fmt.Errorf("failed to write inpainted image: %w", err)
	}

	if err := l.saveRecord(filepath.Join(l.inpaintingDir, id+".json"), record); err != nil {
		os.RemoveAll(folder)
		return nil, err
	}
	l.logger.Info("Recorded inpainting %s", id)
	return record, nil
}

// ListGenerations returns all generation records, newest first
func (l *Ledger) ListGenerations() ([]*GenerationRecord, error) {
	var records []*GenerationRecord
	err := l.eachRecord(l.generatedDir, func(data []byte, path string) {
		var record GenerationRecord
		if err := json.Unmarshal(data, &record); err != nil || record.ID == "" {
			l.logger.Warn("Skipping unreadable generation record %s", path)
			return
		}
		records = append(records, &record)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// ListInpaintings returns all inpainting records, newest first
func (l *Ledger) ListInpaintings() ([]*InpaintingRecord, error) {
	var records []*InpaintingRecord
	err := l.eachRecord(l.inpaintingDir, func(data []byte, path string) {
		var record InpaintingRecord
		if err := json.Unmarshal(data, &record); err != nil || record.ID == "" {
			l.logger.Warn("Skipping unreadable inpainting record %s", path)
			return
		}
		records = append(records, &record)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// DeleteGeneration removes a generation record and its artifact folder.
// Deleting an id that is already gone is not an error.
func (l *Ledger) DeleteGeneration(id string) error {
	return l.deleteEntry(l.generatedDir, id)
}

// DeleteInpainting removes an inpainting record and its artifact folder
func (l *Ledger) DeleteInpainting(id string) error {
	return l.deleteEntry(l.inpaintingDir, id)
}

func (l *Ledger) deleteEntry(dir, id string) error {
	if err := os.Remove(filepath.Join(dir, id+".json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(dir, id)); err != nil {
		return fmt.Errorf("failed to delete artifact folder: %w", err)
	}
	return nil
}

func (l *Ledger) eachRecord(dir string, fn func(data []byte, path string)) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to scan history directory: %w", err)
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable record %s: %v", path, err)
			continue
		}
		fn(data, path)
	}
	return nil
}

func (l *Ledger) saveRecord(path string, record interface{}) error {
	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}
