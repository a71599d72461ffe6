package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/soonsulleng/guide-backend/internal/storage"
)

var ErrInjected = errors.New("injected storage failure")

// Storage implements storage.ImageStore in memory for tests
type Storage struct {
	mu     sync.RWMutex
	root   string
	files  map[string][]byte
	order  []string
	failOn int // 1-based Save call that fails; 0 disables
	calls  int
}

func New(root string) *Storage {
	return &Storage{
		root:  root,
		files: make(map[string][]byte),
	}
}

// FailOnCall makes the n-th Save call return ErrInjected
func (s *Storage) FailOnCall(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = n
}

func (s *Storage) Save(_ context.Context, input *storage.UploadInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.failOn != 0 && s.calls == s.failOn {
		return "", fmt.Errorf("save %s: %w", input.Filename, ErrInjected)
	}

	data, err := io.ReadAll(input.Data)
	if err != nil {
		return "", err
	}

	path := s.root + storage.NewObjectKey(input.Filename)
	s.files[path] = data
	s.order = append(s.order, path)
	return path, nil
}

// Paths returns stored paths in save order
func (s *Storage) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Get returns the stored bytes for path
func (s *Storage) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	return data, ok
}
