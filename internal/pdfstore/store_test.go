package pdfstore

import (
	"bytes"
	"strings"
	"testing"
)

func TestSaveAndRead(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := []byte("%PDF-1.4 fake")
	path, err := s.Save("11111111-2222-3333-4444-555555555555", data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(path, "11111111-2222-3333-4444-555555555555.pdf") {
		t.Errorf("path = %q", path)
	}
	got, err := s.Read("11111111-2222-3333-4444-555555555555")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("read bytes differ from written bytes")
	}
}

func TestRejectsTraversalTokens(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, token := range []string{"", "../etc/passwd", "a/b", `a\b`, "x..y"} {
		if _, err := s.Save(token, []byte("x")); err == nil {
			t.Errorf("Save(%q) accepted an unsafe token", token)
		}
		if _, err := s.Read(token); err == nil {
			t.Errorf("Read(%q) accepted an unsafe token", token)
		}
	}
}
