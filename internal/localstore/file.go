package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File persists the whole key space as one JSON object on disk. Writes go
// through a temp file and rename so a crash never leaves a torn cache.
type File struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// NewFile opens (or creates) the cache file under dir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: mkdir %s: %w", dir, err)
	}
	f := &File{
		path:   filepath.Join(dir, "cache.json"),
		values: make(map[string]string),
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("localstore: read %s: %w", f.path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f.values); err != nil {
			// A corrupt cache file is treated as empty rather than fatal;
			// it only ever holds fallback data.
			f.values = make(map[string]string)
		}
	}
	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.values[key]
	f.values[key] = value
	if err := f.persist(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.values[key]
	if !had {
		return nil
	}
	delete(f.values, key)
	if err := f.persist(); err != nil {
		f.values[key] = prev
		return err
	}
	return nil
}

func (f *File) persist() error {
	raw, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("localstore: marshal: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("localstore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("localstore: rename %s: %w", tmp, err)
	}
	return nil
}
