package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"mii-renderer/internal/config"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/postprocess"
	"mii-renderer/internal/raster"
	"mii-renderer/internal/session"
	"mii-renderer/internal/shader"
	"mii-renderer/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	mii := flag.String("mii", "", "Store data file (.bin raw, .hex text) or sample name (default: jasmine)")
	resourcePath := flag.String("resource", "", "Path to the shared resource file (default: ./FFLResHigh.dat)")
	decalDir := flag.String("decals", "", "Directory of PNG/TGA/JPEG decal overrides")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	resolution := flag.Int("resolution", 0, "Baked texture resolution (default: 512)")
	expressions := flag.String("expressions", "", "Comma separated expressions to bake (default: normal,blink)")
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
		OutputDir:    *outputDir,
		Resolution:   *resolution,
		Expressions:  *expressions,
		NoBody:       true,
	})

	var decals texture.Resolver
	if cfg.DecalDir != "" {
		decals = texture.NewCache(texture.BuildIndex(cfg.DecalDir), log)
	}
	desc, err := session.Descriptor(*mii, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Baking only needs the unlit program.
	b := raster.New(cfg.Resolution, cfg.Resolution, log)
	s, err := session.Open(session.Options{
		Config:     cfg,
		Descriptor: desc,
		Backend:    b,
		Style:      shader.StyleBasic,
		Decals:     decals,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	if !s.Available() {
		fmt.Fprintf(os.Stderr, "Error: nothing baked: %v\n", s.Err())
		os.Exit(1)
	}

	// With FlipY the evaluator bakes upside down, which cancels the
	// bottom-up read-back.
	bottomUp := !config.Enabled(cfg.FlipY)
	outDir := filepath.Join(cfg.OutputDir, "bake")
	dump := func(name string, rt gpu.RenderTarget) bool {
		raw, err := b.ReadPixels(rt.Framebuffer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", name, err)
			return false
		}
		img := postprocess.Frame(raw, postprocess.Options{BottomUp: bottomUp})
		path := filepath.Join(outDir, name+".webp")
		if err := postprocess.WriteWebP(path, img); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		fmt.Printf("  %s (%dx%d)\n", path, rt.Width, rt.Height)
		return true
	}

	rc := s.Context()
	ok := true
	fmt.Printf("Baked textures → %s\n", outDir)
	if rt, has := rc.FacelineTarget(); has {
		ok = dump("faceline", rt) && ok
	} else {
		fmt.Println("  faceline: not needed")
	}
	for _, e := range s.Model().Expressions().All() {
		ok = dump("mask_"+e.String(), rc.MaskTarget(e)) && ok
	}
	if !ok {
		os.Exit(1)
	}
}
