// Package resource loads the shared shape/texture blob the model evaluator
// is initialized from. The blob is read whole and held in memory until the
// library is closed.
package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

var (
	// ErrMissing is returned when the resource file does not exist.
	ErrMissing = errors.New("resource: file missing")
	// ErrEmpty is returned when the file reports a non-positive size.
	ErrEmpty = errors.New("resource: file empty")
	// ErrShortRead is returned when fewer bytes than the reported size could be read.
	ErrShortRead = errors.New("resource: short read")
)

// Load reads the whole file at path.
func Load(path string, log *slog.Logger) ([]byte, error) {
	if log == nil {
		log = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("resource: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("resource: stat %s: %w", path, err)
	}
	data, err := read(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("resource: load %s: %w", path, err)
	}
	log.Debug("resource loaded", "path", path, "bytes", len(data))
	return data, nil
}

// read fills exactly size bytes from r.
func read(r io.Reader, size int64) ([]byte, error) {
	if size <= 0 {
		return nil, ErrEmpty
	}
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, n, size)
		}
		return nil, err
	}
	return buf, nil
}
