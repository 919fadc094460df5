package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// FileSubmissionRepository keeps every submission in one indented JSON array.
// Each operation reads the whole file and rewrites it; the mutex serialises
// those cycles within the process.
type FileSubmissionRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileSubmissionRepository creates the file and its directory when missing.
func NewFileSubmissionRepository(path string) (*FileSubmissionRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("initialise data file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	return &FileSubmissionRepository{path: path}, nil
}

func (r *FileSubmissionRepository) load() ([]*dynform.Submission, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, dynform.NewStorageError("failed to read submissions", err)
	}
	var subs []*dynform.Submission
	if len(data) == 0 {
		return subs, nil
	}
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, dynform.NewStorageError("failed to decode submissions", err)
	}
	return subs, nil
}

// save writes to a sibling temp file and renames it over the data file.
func (r *FileSubmissionRepository) save(subs []*dynform.Submission) error {
	if subs == nil {
		subs = []*dynform.Submission{}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return dynform.NewInternalError("failed to encode submissions", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return dynform.NewStorageError("failed to write submissions", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return dynform.NewStorageError("failed to write submissions", err)
	}
	if err := tmp.Close(); err != nil {
		return dynform.NewStorageError("failed to write submissions", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return dynform.NewStorageError("failed to replace data file", err)
	}
	return nil
}

func indexOf(subs []*dynform.Submission, id uuid.UUID) int {
	for i, s := range subs {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (r *FileSubmissionRepository) Insert(ctx context.Context, s *dynform.Submission) error {
	if s == nil {
		return fmt.Errorf("submission cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return err
	}
	subs = append(subs, s)
	return r.save(subs)
}

func (r *FileSubmissionRepository) Get(ctx context.Context, id uuid.UUID) (*dynform.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(subs, id)
	if i < 0 {
		return nil, dynform.NewSubmissionNotFoundError(id.String())
	}
	return subs[i], nil
}

func (r *FileSubmissionRepository) Update(ctx context.Context, s *dynform.Submission) error {
	if s == nil {
		return fmt.Errorf("submission cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return err
	}
	i := indexOf(subs, s.ID)
	if i < 0 {
		return dynform.NewSubmissionNotFoundError(s.ID.String())
	}
	subs[i] = s
	return r.save(subs)
}

func (r *FileSubmissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return err
	}
	i := indexOf(subs, id)
	if i < 0 {
		return dynform.NewSubmissionNotFoundError(id.String())
	}
	subs = append(subs[:i], subs[i+1:]...)
	return r.save(subs)
}

func (r *FileSubmissionRepository) List(ctx context.Context, opts *dynform.ListOptions) ([]*dynform.Submission, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.Lock()
	subs, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return nil, 0, err
	}
	page, total := applyListOptions(subs, opts)
	return page, total, nil
}
