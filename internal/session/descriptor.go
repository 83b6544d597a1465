package session

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"mii-renderer/internal/evaluator/procedural"
	"mii-renderer/internal/resource"
)

// Descriptor resolves a CLI descriptor argument: empty picks the default
// sample, a sample name picks that sample, a .hex or .txt file is decoded
// as hex text and any other path is read as raw store data.
func Descriptor(arg string, log *slog.Logger) ([]byte, error) {
	if arg == "" {
		arg = procedural.DefaultSample
	}
	if b, ok := procedural.Samples[strings.ToLower(arg)]; ok {
		return append([]byte(nil), b...), nil
	}
	data, err := resource.Load(arg, log)
	if err != nil {
		return nil, fmt.Errorf("session: descriptor: %w", err)
	}
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".hex", ".txt":
		raw, err := hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
		if err != nil {
			return nil, fmt.Errorf("session: descriptor %s: %w", arg, err)
		}
		return raw, nil
	}
	return data, nil
}
