package session

import (
	"errors"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mii-renderer/internal/config"
	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/raster"
	"mii-renderer/internal/render"
	"mii-renderer/internal/resource"
	"mii-renderer/internal/shader"
)

func quiet() *slog.Logger { return slog.New(slog.DiscardHandler) }

func writeResource(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "FFLResHigh.dat")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T, resourcePath string, flags config.Flags) config.Config {
	t.Helper()
	cfg := config.Config{ResourcePath: resourcePath, Width: 48, Height: 64, Supersample: 1, Resolution: 32}
	cfg.Resolve(flags)
	return cfg
}

func open(t *testing.T, cfg config.Config, desc []byte) (*Session, *raster.Backend) {
	t.Helper()
	b := raster.New(cfg.Width, cfg.Height, quiet())
	s, err := Open(Options{Config: cfg, Descriptor: desc, Backend: b, Style: shader.StyleLit, Logger: quiet()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)
	return s, b
}

func sample(t *testing.T) []byte {
	t.Helper()
	d, err := Descriptor("", quiet())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// covered counts pixels that differ from the corner pixel.
func covered(img *image.NRGBA) int {
	bg := img.NRGBAAt(0, 0)
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y) != bg {
				n++
			}
		}
	}
	return n
}

func TestOpenDegradedMissingResource(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "absent.dat"), config.Flags{})
	s, _ := open(t, cfg, sample(t))

	if s.Available() {
		t.Fatal("session should be degraded")
	}
	if !errors.Is(s.Err(), resource.ErrMissing) {
		t.Errorf("Err = %v, want ErrMissing", s.Err())
	}
	if err := s.SetExpression(evaluator.ExpressionSmile); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SetExpression = %v, want ErrUnavailable", err)
	}
	if st := s.Update(10 * time.Second); st != render.BlinkOpen {
		t.Errorf("Update = %v on degraded session", st)
	}

	img, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n := covered(img); n != 0 {
		t.Errorf("degraded frame has %d non-background pixels", n)
	}
	want := [4]uint8{102, 191, 255, 255}
	if c := img.NRGBAAt(10, 10); [4]uint8{c.R, c.G, c.B, c.A} != want {
		t.Errorf("background = %v, want %v", c, want)
	}
}

func TestOpenDegradedRejected(t *testing.T) {
	cfg := testConfig(t, writeResource(t, "NOPE0000"), config.Flags{})
	s, _ := open(t, cfg, sample(t))
	if !errors.Is(s.Err(), evaluator.ErrResourceRejected) {
		t.Errorf("Err = %v, want ErrResourceRejected", s.Err())
	}

	cfg = testConfig(t, writeResource(t, "FFRA\x00\x07\x00\x00"), config.Flags{})
	s, _ = open(t, cfg, []byte{1, 2, 3})
	if !errors.Is(s.Err(), evaluator.ErrDescriptor) {
		t.Errorf("Err = %v, want ErrDescriptor", s.Err())
	}
}

func TestOpenBadConfig(t *testing.T) {
	cfg := testConfig(t, "x", config.Flags{Expressions: "normal,grinning"})
	_, err := Open(Options{Config: cfg, Backend: raster.New(4, 4, quiet()), Logger: quiet()})
	if err == nil {
		t.Fatal("unknown expression should fail Open")
	}
}

func TestRenderDrawsCharacter(t *testing.T) {
	cfg := testConfig(t, writeResource(t, "FFRA\x00\x07\x00\x00"), config.Flags{})
	s, _ := open(t, cfg, sample(t))
	if !s.Available() {
		t.Fatalf("session unavailable: %v", s.Err())
	}
	if !s.Context().Baked() {
		t.Error("model was not baked")
	}

	img, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 64 {
		t.Fatalf("frame = %v, want 48x64", b)
	}
	if n := covered(img); n < 48*64/20 {
		t.Errorf("only %d pixels cover the character", n)
	}
	if _, ok := s.Context().Pool().Target(render.SlotFrame); !ok {
		t.Error("frame target not kept for reuse")
	}
}

func TestRenderSupersampleAndIcon(t *testing.T) {
	res := writeResource(t, "FFRA\x00\x07\x00\x00")
	cfg := testConfig(t, res, config.Flags{Transparent: true, Icon: 24})
	cfg.Supersample = 2
	s, _ := open(t, cfg, sample(t))

	img, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 24 {
		t.Fatalf("icon = %v, want 24x24", b)
	}
	rt, _ := s.Context().Pool().Target(render.SlotFrame)
	if rt.Width != 96 || rt.Height != 128 {
		t.Errorf("frame target %dx%d, want 96x128", rt.Width, rt.Height)
	}
	if img.NRGBAAt(0, 0).A != 0 {
		t.Error("icon corner should be transparent")
	}
}

func TestBlinkCycle(t *testing.T) {
	cfg := testConfig(t, writeResource(t, "FFRA\x00\x07\x00\x00"), config.Flags{})
	s, _ := open(t, cfg, sample(t))

	steps := []struct {
		at   time.Duration
		want evaluator.Expression
	}{
		{0, evaluator.ExpressionNormal},
		{8 * time.Second, evaluator.ExpressionBlink},
		{8*time.Second + 80*time.Millisecond, evaluator.ExpressionNormal},
		{16*time.Second - time.Millisecond, evaluator.ExpressionNormal},
		{16 * time.Second, evaluator.ExpressionBlink},
	}
	for _, st := range steps {
		s.Update(st.at)
		if got := s.Context().Expression(); got != st.want {
			t.Errorf("at %v expression = %v, want %v", st.at, got, st.want)
		}
	}
}

func TestSetExpression(t *testing.T) {
	cfg := testConfig(t, writeResource(t, "FFRA\x00\x07\x00\x00"), config.Flags{Expressions: "normal,smile,blink"})
	s, _ := open(t, cfg, sample(t))

	if err := s.SetExpression(evaluator.ExpressionAnger); err == nil {
		t.Error("unbaked expression should be refused")
	}
	if err := s.SetExpression(evaluator.ExpressionSmile); err != nil {
		t.Fatal(err)
	}
	mask, _ := s.Context().CurrentMask()
	if mask != s.Context().MaskTarget(evaluator.ExpressionSmile) {
		t.Error("current mask not repointed")
	}

	// Blinks now return to the smile.
	s.Update(8 * time.Second)
	s.Update(9 * time.Second)
	if got := s.Context().Expression(); got != evaluator.ExpressionSmile {
		t.Errorf("after blink expression = %v, want smile", got)
	}
}

func TestSetExpressionKeepsBlinkSchedule(t *testing.T) {
	cfg := testConfig(t, writeResource(t, "FFRA\x00\x07\x00\x00"), config.Flags{Expressions: "normal,smile,blink"})
	s, _ := open(t, cfg, sample(t))

	s.Update(time.Second)
	s.Update(30 * time.Second)
	s.Update(30*time.Second + 100*time.Millisecond)
	if err := s.SetExpression(evaluator.ExpressionSmile); err != nil {
		t.Fatal(err)
	}
	if st := s.Update(31 * time.Second); st != render.BlinkOpen {
		t.Errorf("Update(31s) = %v, want open", st)
	}
	if got := s.Context().Expression(); got != evaluator.ExpressionSmile {
		t.Errorf("expression = %v, want smile", got)
	}
	if st := s.Update(38 * time.Second); st != render.BlinkClosed {
		t.Errorf("Update(38s) = %v, want blinking", st)
	}
}

func TestNoBlinkWithoutBlinkMask(t *testing.T) {
	cfg := testConfig(t, writeResource(t, "FFRA\x00\x07\x00\x00"), config.Flags{Expressions: "smile"})
	s, _ := open(t, cfg, sample(t))
	if st := s.Update(20 * time.Second); st != render.BlinkOpen {
		t.Errorf("Update = %v, want open", st)
	}
	if got := s.Context().Expression(); got != evaluator.ExpressionSmile {
		t.Errorf("expression = %v, want smile", got)
	}
}

func TestFrameCamera(t *testing.T) {
	full := Frame(nil, true)
	head := Frame(nil, false)
	if head.Target[1] <= full.Target[1] {
		t.Errorf("head target y %v should sit above body target y %v", head.Target[1], full.Target[1])
	}
	if head.Eye[2] >= full.Eye[2] {
		t.Errorf("head camera at z %v should be closer than %v", head.Eye[2], full.Eye[2])
	}
}

func TestDescriptor(t *testing.T) {
	lane, err := Descriptor("Lane", quiet())
	if err != nil || len(lane) != 96 {
		t.Fatalf("Descriptor(Lane) = %d bytes, %v", len(lane), err)
	}

	dir := t.TempDir()
	hexPath := filepath.Join(dir, "lane.hex")
	text := "03010030 80215864\n" + "804400a0"
	if err := os.WriteFile(hexPath, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Descriptor(hexPath, quiet())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 12 || got[0] != 3 || got[11] != 0xa0 {
		t.Errorf("hex descriptor = %x", got)
	}

	if _, err := Descriptor(filepath.Join(dir, "none.bin"), quiet()); !errors.Is(err, resource.ErrMissing) {
		t.Errorf("missing descriptor err = %v", err)
	}
}
