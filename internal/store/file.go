// Package store persists learned split rules.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/italogmoura/ControleGastosDomesticos/internal/rules"
)

// FileStore keeps rules as an exported rules document on disk.
type FileStore struct {
	Path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, now: time.Now}
}

// Load reads the document. A missing file is an empty snapshot; legacy
// documents are migrated on read.
func (s *FileStore) Load(ctx context.Context) (*rules.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return rules.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules file %q: %w", s.Path, err)
	}
	snap, _, err := rules.Decode(data, s.clock())
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", s.Path, err)
	}
	return snap, nil
}

func (s *FileStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Save writes the document through a temporary file so a failed write never
// truncates the previous one.
func (s *FileStore) Save(ctx context.Context, snap *rules.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := rules.Encode(snap, s.clock())
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".regras-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %q: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", s.Path, err)
	}
	return nil
}
