package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mii-renderer/internal/batch"
	"mii-renderer/internal/config"
	"mii-renderer/internal/postprocess"
	"mii-renderer/internal/raster"
	"mii-renderer/internal/resource"
	"mii-renderer/internal/session"
	"mii-renderer/internal/shader"
	"mii-renderer/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	mii := flag.String("mii", "", "Store data file (.bin raw, .hex text) or sample name (default: jasmine)")
	dir := flag.String("dir", "", "Render every store data file in this directory")
	samples := flag.Bool("samples", false, "Render every built-in sample")
	resourcePath := flag.String("resource", "", "Path to the shared resource file (default: ./FFLResHigh.dat)")
	decalDir := flag.String("decals", "", "Directory of PNG/TGA/JPEG decal overrides")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	resolution := flag.Int("resolution", 0, "Baked texture resolution (default: 512)")
	expressions := flag.String("expressions", "", "Comma separated expressions to bake (default: normal,blink)")
	expression := flag.String("expression", "", "Expression for single renders (default: first baked)")
	width := flag.Int("width", 0, "Output width (default: 800)")
	height := flag.Int("height", 0, "Output height (default: 600)")
	transparent := flag.Bool("transparent", false, "Clear to transparent instead of sky blue")
	icon := flag.Int("icon", 0, "Crop to the character on a square canvas of this size")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	noLight := flag.Bool("no-light", false, "Disable lighting")
	noBody := flag.Bool("no-body", false, "Draw the head only")
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
		Expression:   *expression,
		Width:        *width,
		Height:       *height,
		Transparent:  *transparent,
		Icon:         *icon,
		Workers:      *workers,
		NoLight:      *noLight,
		NoBody:       *noBody,
	})

	var decals texture.Resolver
	if cfg.DecalDir != "" {
		idx := texture.BuildIndex(cfg.DecalDir)
		decals = texture.NewCache(idx, log)
		fmt.Printf("Decal overrides: %d indexed\n", idx.Len())
	}

	if *dir != "" || *samples {
		os.Exit(runBatch(cfg, *dir, decals, log))
	}
	os.Exit(runSingle(cfg, *mii, decals, log))
}

func runSingle(cfg config.Config, mii string, decals texture.Resolver, log *slog.Logger) int {
	desc, err := session.Descriptor(mii, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	// The whole expression set is baked but only the active one is written.
	b := raster.New(cfg.Width, cfg.Height, log)
	s, err := session.Open(session.Options{
		Config:     cfg,
		Descriptor: desc,
		Backend:    b,
		Style:      shader.StyleLit,
		Decals:     decals,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()
	if !s.Available() {
		fmt.Fprintf(os.Stderr, "Warning: character unavailable, writing background only: %v\n", s.Err())
	}

	start := time.Now()
	img, err := s.Render()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	name := strings.TrimSuffix(filepath.Base(mii), filepath.Ext(mii))
	if name == "" || name == "." {
		name = "character"
	}
	if m := s.Model(); m != nil {
		name += "_" + m.Expression().String()
	}
	out := filepath.Join(cfg.OutputDir, name+".webp")
	if err := postprocess.WriteWebP(out, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s (%dx%d) in %.2fs\n", out, img.Bounds().Dx(), img.Bounds().Dy(), time.Since(start).Seconds())
	return 0
}

func runBatch(cfg config.Config, dir string, decals texture.Resolver, log *slog.Logger) int {
	jobs := batch.Samples()
	if dir != "" {
		var err error
		if jobs, err = batch.Scan(dir, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if len(jobs) == 0 {
		fmt.Println("No characters to render.")
		return 0
	}

	res, err := resource.Load(cfg.ResourcePath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Mii renderer → WebP\n")
	fmt.Printf("Characters: %d, Expressions: %s, Workers: %d\n", len(jobs), strings.Join(cfg.Expressions, ","), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(batch.Config{
		Render:   cfg,
		Resource: res,
		Decals:   decals,
		Progress: os.Stderr,
		Logger:   log,
	}, jobs)
	fmt.Println()
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	var failed []batch.Result
	for _, r := range results {
		if !r.Success() {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", len(results)-len(failed), len(results))
	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(20, len(failed))] {
			fmt.Printf("  %s: %s\n", r.Job.Name, r.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 {
		return 1
	}
	return 0
}
