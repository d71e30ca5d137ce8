// Package pdfstore persists rendered ticket PDFs on disk. Files are
// named by the unit's token rather than by order or index, so a path
// never leaks a guessable identifier.
package pdfstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes and reads ticket PDFs under a single base directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pdfstore: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the PDF bytes for a token and returns the stored path.
func (s *Store) Save(token string, data []byte) (string, error) {
	path := s.path(token)
	if path == "" {
		return "", fmt.Errorf("pdfstore: invalid token")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdfstore: write %s: %w", path, err)
	}
	return path, nil
}

// Read returns the stored PDF bytes for a token.
func (s *Store) Read(token string) ([]byte, error) {
	path := s.path(token)
	if path == "" {
		return nil, fmt.Errorf("pdfstore: invalid token")
	}
	return os.ReadFile(path)
}

// path maps a token to its file location. Tokens containing path
// separators or traversal sequences are rejected outright.
func (s *Store) path(token string) string {
	if token == "" || strings.ContainsAny(token, `/\`) || strings.Contains(token, "..") {
		return ""
	}
	return filepath.Join(s.dir, token+".pdf")
}
