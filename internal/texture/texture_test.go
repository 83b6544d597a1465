package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mii-renderer/internal/evaluator"
)

func TestToImageChannels(t *testing.T) {
	tests := []struct {
		format evaluator.TextureFormat
		pix    []byte
		want   color.NRGBA
	}{
		{evaluator.TextureFormatR8, []byte{200}, color.NRGBA{200, 0, 0, 255}},
		{evaluator.TextureFormatRG8, []byte{10, 20}, color.NRGBA{10, 20, 0, 255}},
		{evaluator.TextureFormatRGBA8, []byte{1, 2, 3, 4}, color.NRGBA{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		img, err := ToImage(&evaluator.TextureInfo{Width: 1, Height: 1, Format: tt.format, Pixels: tt.pix})
		if err != nil {
			t.Fatalf("ToImage(%d): %v", tt.format, err)
		}
		if got := img.NRGBAAt(0, 0); got != tt.want {
			t.Errorf("ToImage(%d) = %v, want %v", tt.format, got, tt.want)
		}
		raw, err := FromImage(img, tt.format)
		if err != nil {
			t.Fatalf("FromImage(%d): %v", tt.format, err)
		}
		if !bytes.Equal(raw, tt.pix) {
			t.Errorf("FromImage(%d) = %v, want %v", tt.format, raw, tt.pix)
		}
	}
}

func TestToImageErrors(t *testing.T) {
	if _, err := ToImage(&evaluator.TextureInfo{Width: 2, Height: 2, Format: 7, Pixels: make([]byte, 16)}); err == nil {
		t.Error("unknown format accepted")
	}
	if _, err := ToImage(&evaluator.TextureInfo{Width: 2, Height: 2, Format: evaluator.TextureFormatRGBA8, Pixels: make([]byte, 15)}); err == nil {
		t.Error("short pixel buffer accepted")
	}
}

func TestResize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	if got := Resize(src, 4, 4); got != src {
		t.Error("Resize at same size copied the image")
	}
	got := Resize(src, 2, 8)
	if b := got.Bounds(); b.Dx() != 2 || b.Dy() != 8 {
		t.Fatalf("Resize bounds = %v, want 2x8", b)
	}
	if c := got.NRGBAAt(1, 4); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Resize pixel = %v, want opaque white", c)
	}
}

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, uniform(c)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func uniform(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// tgaFile is an uncompressed 32-bit top-left-origin TGA.
func tgaFile(w, h int, c color.NRGBA) []byte {
	hdr := []byte{0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, byte(w), 0, byte(h), 0, 32, 0x28}
	for range w * h {
		hdr = append(hdr, c.B, c.G, c.R, c.A)
	}
	return hdr
}

func near8(a, b uint8) bool { return max(a, b)-min(a, b) <= 4 }

func TestDecodeFormats(t *testing.T) {
	want := color.NRGBA{200, 100, 50, 255}
	var pngBuf, jpgBuf bytes.Buffer
	if err := png.Encode(&pngBuf, uniform(want)); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpgBuf, uniform(want), &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		raw  []byte
		want color.NRGBA
	}{
		{"png", pngBuf.Bytes(), want},
		{"jpeg", jpgBuf.Bytes(), want},
		{"tga", tgaFile(2, 2, color.NRGBA{200, 100, 50, 128}), color.NRGBA{200, 100, 50, 128}},
	}
	for _, tt := range tests {
		img, err := Decode(tt.raw)
		if err != nil {
			t.Errorf("Decode(%s): %v", tt.name, err)
			continue
		}
		if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
			t.Errorf("Decode(%s) bounds = %v, want 2x2", tt.name, b)
			continue
		}
		got := img.NRGBAAt(1, 1)
		if !near8(got.R, tt.want.R) || !near8(got.G, tt.want.G) || !near8(got.B, tt.want.B) || got.A != tt.want.A {
			t.Errorf("Decode(%s) pixel = %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := Decode([]byte("garbage")); err == nil {
		t.Error("Decode accepted garbage")
	}
}

func TestIndexPriority(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "eyes")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(sub, "Eye.png"), color.NRGBA{A: 255})
	if err := os.WriteFile(filepath.Join(dir, "eye.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx := BuildIndex(dir)
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1", idx.Len())
	}
	path, ok := idx.ResolvePath(`decals\EYE.tga`)
	if !ok || filepath.Ext(path) != ".png" {
		t.Errorf("ResolvePath = %q, %v; want the png", path, ok)
	}
	if _, ok := idx.ResolvePath("mouth"); ok {
		t.Error("ResolvePath found an absent decal")
	}
	if BuildIndex("").Len() != 0 {
		t.Error("empty dir produced entries")
	}
}

func TestCacheResolve(t *testing.T) {
	dir := t.TempDir()
	want := color.NRGBA{10, 20, 30, 255}
	writePNG(t, filepath.Join(dir, "mouth.png"), want)
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCache(BuildIndex(dir), slog.New(slog.DiscardHandler))

	var wg sync.WaitGroup
	imgs := make([]*image.NRGBA, 8)
	for i := range imgs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			imgs[i] = c.Resolve("mouth")
		}(i)
	}
	wg.Wait()
	for i, img := range imgs {
		if img == nil {
			t.Fatalf("Resolve #%d = nil", i)
		}
		if got := img.NRGBAAt(1, 1); got != want {
			t.Errorf("Resolve #%d pixel = %v, want %v", i, got, want)
		}
	}
	if c.Resolve("mouth") != c.Resolve("mouth") {
		t.Error("second Resolve reloaded the image")
	}
	if c.Resolve("broken") != nil {
		t.Error("broken override decoded")
	}
	if c.Resolve("absent") != nil {
		t.Error("absent override resolved")
	}
}
