package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pkg/errors"
)

var cleanKeyRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func cleanKey(key string) string {
	return cleanKeyRe.ReplaceAllString(key, "")
}

// File stores one file per key under a directory. JSON values are pretty-printed.
type File struct {
	mu  sync.Mutex
	dir string
}

// NewFile creates dir if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, cleanKey(key)+".json")
}

func (f *File) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if json.Valid(value) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, value, "", "  "); err == nil {
			value = buf.Bytes()
		}
	}
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return errors.Wrapf(os.Rename(tmp, f.path(key)), "commit %s", key)
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "read %s", key)
	}
	return data, true, nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (f *File) Close() error { return nil }
