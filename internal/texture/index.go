package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// extPriority ranks decal override extensions; higher wins for a shared stem.
var extPriority = map[string]int{
	".jpg":  1,
	".jpeg": 1,
	".tga":  2,
	".png":  3,
}

// Index maps lowercase decal names to override image paths.
// Formats with alpha take priority over JPEG for the same stem.
type Index struct {
	entries map[string]string
}

// BuildIndex scans dir recursively for PNG, TGA and JPEG files. A missing
// or empty dir yields an empty index.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if dir == "" {
		return idx
	}
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank, ok := extPriority[ext]
		if !ok {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if existing, exists := idx.entries[stem]; !exists || rank > extPriority[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})
	return idx
}

// ResolvePath returns the override path for a decal name, or ("", false).
func (idx *Index) ResolvePath(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed overrides.
func (idx *Index) Len() int {
	return len(idx.entries)
}
