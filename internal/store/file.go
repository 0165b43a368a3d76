package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileArchive appends submissions to a JSON-lines file on disk.
type FileArchive struct {
	mu   sync.Mutex
	path string
}

func NewFileArchive(path string) *FileArchive {
	return &FileArchive{path: path}
}

func (f *FileArchive) SaveSubmission(_ context.Context, sub Submission) error {
	if sub.ID == "" {
		return fmt.Errorf("invalid submission")
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	// Submissions hold personal data; keep the file private
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.Write(append(b, '\n')); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// List reads every archived submission in write order.
func (f *FileArchive) List() ([]Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var out []Submission
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var s Submission
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.path, err)
		}
		out = append(out, s)
	}
	return out, sc.Err()
}
