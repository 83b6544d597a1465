// Package config loads renderer settings from a JSON or YAML file and
// overlays command line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mii-renderer/internal/evaluator"
)

// Defaults applied by Resolve.
const (
	DefaultResourcePath  = "FFLResHigh.dat"
	DefaultResolution    = 512
	DefaultWidth         = 800
	DefaultHeight        = 600
	DefaultSupersample   = 2
	DefaultBlinkInterval = 8 * time.Second
	DefaultBlinkDuration = 80 * time.Millisecond
)

// DefaultExpressions are baked when the config names none.
var DefaultExpressions = []string{"normal", "blink"}

// DefaultBackground is the frame clear color, sky blue.
var DefaultBackground = []float64{0.4, 0.749, 1, 1}

// Duration is a time.Duration written as "8s" or "80ms" in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	ResourcePath string `json:"resource_path" yaml:"resource_path"`
	DecalDir     string `json:"decal_dir" yaml:"decal_dir"`
	OutputDir    string `json:"output_dir" yaml:"output_dir"`

	// Model
	Resolution  int      `json:"resolution" yaml:"resolution"`
	Expressions []string `json:"expressions" yaml:"expressions"`
	Expression  string   `json:"expression" yaml:"expression"`

	// Render settings
	Width       int `json:"width" yaml:"width"`
	Height      int `json:"height" yaml:"height"`
	Supersample int `json:"supersample" yaml:"supersample"`
	// Background is the RGBA clear color; alpha 0 renders cut-out icons.
	Background []float64 `json:"background" yaml:"background"`
	// Icon, when positive, crops frames to the character on an Icon×Icon canvas.
	Icon    int `json:"icon" yaml:"icon"`
	Workers int `json:"workers" yaml:"workers"`

	BlinkInterval Duration `json:"blink_interval" yaml:"blink_interval"`
	BlinkDuration Duration `json:"blink_duration" yaml:"blink_duration"`

	// Unset switches default to true.
	PackedNormals *bool `json:"packed_normals" yaml:"packed_normals"`
	FlipY         *bool `json:"flip_y" yaml:"flip_y"`
	Light         *bool `json:"light" yaml:"light"`
	Body          *bool `json:"body" yaml:"body"`
}

// Load reads a config file; .yaml and .yml use YAML, anything else JSON.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the file setting alone.
type Flags struct {
	ResourcePath string
	DecalDir     string
	OutputDir    string
	Resolution   int
	Expressions  string // comma separated
	Expression   string
	Width        int
	Height       int
	Transparent  bool
	Icon         int
	Workers      int
	NoLight      bool
	NoBody       bool
}

// Resolve overlays flags and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.ResourcePath != "" {
		c.ResourcePath = flags.ResourcePath
	}
	if flags.DecalDir != "" {
		c.DecalDir = flags.DecalDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Resolution > 0 {
		c.Resolution = flags.Resolution
	}
	if flags.Expressions != "" {
		c.Expressions = splitList(flags.Expressions)
	}
	if flags.Expression != "" {
		c.Expression = flags.Expression
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Transparent {
		c.Background = []float64{0, 0, 0, 0}
	}
	if flags.Icon > 0 {
		c.Icon = flags.Icon
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.NoLight {
		c.Light = ptr(false)
	}
	if flags.NoBody {
		c.Body = ptr(false)
	}

	if c.ResourcePath == "" {
		c.ResourcePath = filepath.Join(".", DefaultResourcePath)
	}
	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.Resolution <= 0 {
		c.Resolution = DefaultResolution
	}
	if len(c.Expressions) == 0 {
		c.Expressions = append([]string(nil), DefaultExpressions...)
	}
	if c.Expression == "" {
		c.Expression = c.Expressions[0]
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Supersample <= 0 {
		c.Supersample = DefaultSupersample
	}
	if len(c.Background) != 4 {
		c.Background = append([]float64(nil), DefaultBackground...)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.BlinkInterval.Duration <= 0 {
		c.BlinkInterval.Duration = DefaultBlinkInterval
	}
	if c.BlinkDuration.Duration <= 0 {
		c.BlinkDuration.Duration = DefaultBlinkDuration
	}
	for _, p := range []**bool{&c.PackedNormals, &c.FlipY, &c.Light, &c.Body} {
		if *p == nil {
			*p = ptr(true)
		}
	}
}

// ExpressionSet parses the configured expression names.
func (c *Config) ExpressionSet() (evaluator.ExpressionSet, error) {
	es := make([]evaluator.Expression, 0, len(c.Expressions))
	for _, name := range c.Expressions {
		e, err := evaluator.ParseExpression(name)
		if err != nil {
			return evaluator.ExpressionSet{}, fmt.Errorf("config: %w", err)
		}
		es = append(es, e)
	}
	return evaluator.NewExpressionSet(es...)
}

// ActiveExpression parses the expression shown first.
func (c *Config) ActiveExpression() (evaluator.Expression, error) {
	e, err := evaluator.ParseExpression(c.Expression)
	if err != nil {
		return 0, fmt.Errorf("config: %w", err)
	}
	return e, nil
}

// Enabled dereferences a resolved switch; nil reads as true.
func Enabled(b *bool) bool {
	return b == nil || *b
}

func ptr(b bool) *bool { return &b }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
