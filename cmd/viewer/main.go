package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"mii-renderer/internal/config"
	"mii-renderer/internal/raster"
	"mii-renderer/internal/session"
	"mii-renderer/internal/shader"
	"mii-renderer/internal/texture"
)

// turnSpeed is the arrow-key rotation in radians per tick.
const turnSpeed = 0.05

type viewer struct {
	s      *session.Session
	log    *slog.Logger
	start  time.Time
	frame  *ebiten.Image
	width  int
	height int
	spin   bool
	yaw    float64
	expr   int
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowLeft):
		v.yaw -= turnSpeed
	case ebiten.IsKeyPressed(ebiten.KeyArrowRight):
		v.yaw += turnSpeed
	case v.spin:
		v.yaw += turnSpeed / 4
	}
	v.yaw = math.Mod(v.yaw, 2*math.Pi)
	v.s.SetYaw(v.yaw)

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && v.s.Available() {
		all := v.s.Model().Expressions().All()
		v.expr = (v.expr + 1) % len(all)
		if err := v.s.SetExpression(all[v.expr]); err != nil {
			v.log.Warn("expression change failed", "err", err)
		} else {
			v.log.Info("expression", "name", all[v.expr])
		}
	}
	v.s.Update(time.Since(v.start))
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	img, err := v.s.Render()
	if err != nil {
		v.log.Error("render failed", "err", err)
		return
	}
	if v.frame == nil {
		v.frame = ebiten.NewImage(v.width, v.height)
	}
	// The background is opaque, so straight and premultiplied alpha agree.
	v.frame.WritePixels(img.Pix)
	screen.DrawImage(v.frame, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height
}

func main() {
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	mii := flag.String("mii", "", "Store data file (.bin raw, .hex text) or sample name (default: jasmine)")
	resourcePath := flag.String("resource", "", "Path to the shared resource file (default: ./FFLResHigh.dat)")
	decalDir := flag.String("decals", "", "Directory of PNG/TGA/JPEG decal overrides")
	expressions := flag.String("expressions", "", "Comma separated expressions to bake (default: normal,blink)")
	width := flag.Int("width", 0, "Window width (default: 800)")
	height := flag.Int("height", 0, "Window height (default: 600)")
	noLight := flag.Bool("no-light", false, "Disable lighting")
	noBody := flag.Bool("no-body", false, "Draw the head only")
	spin := flag.Bool("spin", false, "Turn the character slowly")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	log := config.SetupLogging(*verbose)

	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		ResourcePath: *resourcePath,
		DecalDir:     *decalDir,
		Expressions:  *expressions,
		Width:        *width,
		Height:       *height,
		NoLight:      *noLight,
		NoBody:       *noBody,
	})
	// Software rendering every tick; keep the frame at window size.
	cfg.Supersample = 1
	cfg.Icon = 0
	if cfg.Background[3] < 1 {
		cfg.Background = config.DefaultBackground
	}

	var decals texture.Resolver
	if cfg.DecalDir != "" {
		decals = texture.NewCache(texture.BuildIndex(cfg.DecalDir), log)
	}

	desc, err := session.Descriptor(*mii, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s, err := session.Open(session.Options{
		Config:     cfg,
		Descriptor: desc,
		Backend:    raster.New(cfg.Width, cfg.Height, log),
		Style:      shader.StyleLit,
		Decals:     decals,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	if !s.Available() {
		fmt.Fprintf(os.Stderr, "Warning: character unavailable: %v\n", s.Err())
	}

	v := &viewer{s: s, log: log, start: time.Now(), width: cfg.Width, height: cfg.Height, spin: *spin}
	ebiten.SetWindowTitle("Mii viewer")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(30)
	fmt.Println("Arrows rotate, space cycles expressions, Esc quits.")
	if err := ebiten.RunGame(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
