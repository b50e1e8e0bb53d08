package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the token in a small YAML key-value file. Keys other than
// the token are preserved across writes.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.read()
	if err != nil {
		return "", err
	}
	return kv[TokenKey], nil
}

func (f *FileStore) Set(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.read()
	if err != nil {
		return err
	}
	kv[TokenKey] = token
	return f.write(kv)
}

func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := kv[TokenKey]; !ok {
		return nil
	}
	delete(kv, TokenKey)
	return f.write(kv)
}

func (f *FileStore) read() (map[string]string, error) {
	kv := map[string]string{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := yaml.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", f.path, err)
	}
	if kv == nil {
		kv = map[string]string{}
	}
	return kv, nil
}

func (f *FileStore) write(kv map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(kv)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
