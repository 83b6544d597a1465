// Package batch renders many characters in parallel. Every worker owns
// its own software backend, so each render context stays on the
// goroutine that created it.
package batch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"mii-renderer/internal/config"
	"mii-renderer/internal/evaluator/procedural"
	"mii-renderer/internal/postprocess"
	"mii-renderer/internal/raster"
	"mii-renderer/internal/session"
	"mii-renderer/internal/shader"
	"mii-renderer/internal/texture"
)

// Job is one character to render.
type Job struct {
	Name       string
	Source     string
	Descriptor []byte
}

// Config holds the resources shared by every worker.
type Config struct {
	// Render must already be resolved.
	Render   config.Config
	Resource []byte
	Decals   texture.Resolver
	// Progress receives the progress bar; nil hides it.
	Progress io.Writer
	Logger   *slog.Logger
}

// Result is the outcome of one job.
type Result struct {
	Job    Job
	Name   string
	Author string
	// Images maps expression names to paths relative to the output dir.
	Images map[string]string
	Error  string
}

// Success reports whether every image was written.
func (r Result) Success() bool { return r.Error == "" }

// Run renders every job with cfg.Render.Workers workers, one image per
// configured expression, and returns results in job order.
func Run(cfg Config, jobs []Job) []Result {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	workers := max(1, min(cfg.Render.Workers, len(jobs)))
	results := make([]Result, len(jobs))

	var bar *progressbar.ProgressBar
	if cfg.Progress != nil {
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetWriter(cfg.Progress),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("characters"),
		)
	}

	var failed atomic.Int64
	start := time.Now()
	queue := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := newWorker(cfg)
			for i := range queue {
				results[i] = w.process(jobs[i])
				if !results[i].Success() {
					failed.Add(1)
				}
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}
	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	cfg.Logger.Info("batch done", "jobs", len(jobs), "failed", failed.Load(), "workers", workers, "elapsed", time.Since(start))
	return results
}

type worker struct {
	cfg     Config
	backend *raster.Backend
}

func newWorker(cfg Config) *worker {
	return &worker{cfg: cfg, backend: raster.New(cfg.Render.Width, cfg.Render.Height, cfg.Logger)}
}

func (w *worker) process(job Job) Result {
	res := Result{Job: job, Images: make(map[string]string)}
	s, err := session.Open(session.Options{
		Config:     w.cfg.Render,
		Descriptor: job.Descriptor,
		Resource:   w.cfg.Resource,
		Backend:    w.backend,
		Style:      shader.StyleLit,
		Decals:     w.cfg.Decals,
		Logger:     w.cfg.Logger.With("job", job.Name),
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer s.Close()
	if !s.Available() {
		res.Error = s.Err().Error()
		return res
	}
	if pm, ok := s.Model().(*procedural.Model); ok {
		res.Name, res.Author = pm.Descriptor().Name, pm.Descriptor().Author
	}

	for _, e := range s.Model().Expressions().All() {
		if err := s.SetExpression(e); err != nil {
			res.Error = err.Error()
			return res
		}
		img, err := s.Render()
		if err != nil {
			res.Error = err.Error()
			return res
		}
		rel := filepath.Join(job.Name, e.String()+".webp")
		if err := postprocess.WriteWebP(filepath.Join(w.cfg.Render.OutputDir, rel), img); err != nil {
			res.Error = err.Error()
			return res
		}
		res.Images[e.String()] = filepath.ToSlash(rel)
	}
	return res
}

var descriptorExts = []string{".bin", ".hex", ".txt", ".charinfo", ".ffsd"}

// Scan lists descriptor files in dir, sorted by name. Each job is named
// after its file stem.
func Scan(dir string, log *slog.Logger) ([]Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", dir, err)
	}
	var jobs []Job
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !slices.Contains(descriptorExts, ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := session.Descriptor(path, log)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), Source: path, Descriptor: data})
	}
	return jobs, nil
}

// Samples returns a job per built-in sample character.
func Samples() []Job {
	names := make([]string, 0, len(procedural.Samples))
	for name := range procedural.Samples {
		names = append(names, name)
	}
	slices.Sort(names)
	jobs := make([]Job, len(names))
	for i, name := range names {
		jobs[i] = Job{Name: name, Source: "sample", Descriptor: procedural.Samples[name]}
	}
	return jobs
}
