package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File pairs a parsed layout with its on-disk source.
type File struct {
	Layout *Layout
	Path   string
}

// ParseLayoutYAML decodes and validates a single layout document.
func ParseLayoutYAML(data []byte) (*Layout, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("layout: payload is empty")
	}
	var l Layout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("layout: decode: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadLayoutFile reads a YAML layout from disk.
func LoadLayoutFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("layout: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("layout: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("layout: read %s: %w", path, err)
	}
	l, err := ParseLayoutYAML(data)
	if err != nil {
		return File{}, fmt.Errorf("layout: %s: %w", path, err)
	}
	return File{Layout: l, Path: filepath.Clean(path)}, nil
}

// LoadLayoutDir parses every *.yaml / *.yml file in dir, sorted by path.
// A missing directory yields no layouts.
func LoadLayoutDir(dir string) ([]File, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("layout: read %s: %w", trimmed, err)
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		f, err := LoadLayoutFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// RegisterDir loads dir and registers each layout into r.
func (r *Registry) RegisterDir(dir string) (int, error) {
	files, err := LoadLayoutDir(dir)
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := r.Register(f.Layout); err != nil {
			return 0, fmt.Errorf("layout: %s: %w", f.Path, err)
		}
	}
	return len(files), nil
}

// MarshalYAML renders l as a YAML document.
func MarshalYAML(l *Layout) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("layout: encode %s: %w", l.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
