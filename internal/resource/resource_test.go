package resource

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var quiet = slog.New(slog.DiscardHandler)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "res.dat")
	want := []byte("shape and texture payload")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path, quiet)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Load = %q, want %q", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.dat")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "nope.dat"), ErrMissing},
		{"empty", empty, ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path, quiet)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load(%s) error = %v, want %v", tt.name, err, tt.want)
			}
		})
	}
}

func TestReadShort(t *testing.T) {
	_, err := read(bytes.NewReader(make([]byte, 10)), 16)
	if !errors.Is(err, ErrShortRead) {
		t.Errorf("read error = %v, want ErrShortRead", err)
	}
	got, err := read(bytes.NewReader(make([]byte, 16)), 16)
	if err != nil || len(got) != 16 {
		t.Errorf("read = %d bytes, %v; want 16, nil", len(got), err)
	}
}
