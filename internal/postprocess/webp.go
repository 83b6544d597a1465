package postprocess

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("postprocess: encode webp: %w", err)
	}
	return nil
}

// WriteWebP encodes img to path, creating parent directories.
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	if err := EncodeWebP(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
