package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceKind says where an effective value came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source locates the YAML node that set a value.
type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

// Position renders a file source as "file:line:col". It is empty for
// sources without a file position.
func (s Source) Position() string {
	if s.Kind != SourceFile || s.File == "" || s.Line <= 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

func (s Source) String() string {
	switch {
	case s.Position() != "":
		return "file:" + s.Position()
	case s.Kind == SourceFile && s.File != "":
		return "file:" + s.File
	case s.Kind == "":
		return string(SourceDefault)
	default:
		return string(s.Kind)
	}
}

// LoadResult is an effective config plus the positions that set it.
type LoadResult struct {
	Config *Config
	// Sources maps a YAML path (window.width, surfaces[1].color) to the
	// last file position that wrote it.
	Sources map[string]Source
	// Files lists every loaded file in merge order.
	Files []string
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winbridge", "config.yaml"), nil
}

// LoadWithSources loads the config at DefaultConfigPath.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes on top of the defaults. A
// missing file yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &loader{seen: make(map[string]bool)}
	top := newLayer()

	switch _, err := os.Stat(path); {
	case err == nil:
		top, err = l.load(path)
		if err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	cfg := BuildEffectiveConfig(top.raw)
	if err := resolveSurfacePaths(cfg, top.sources); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, withSource(err, top.sources)
	}
	return &LoadResult{Config: cfg, Sources: top.sources, Files: l.files}, nil
}

// layer is a partially merged config with the positions of its values.
type layer struct {
	raw     RawConfig
	sources map[string]Source
}

func newLayer() layer {
	return layer{sources: make(map[string]Source)}
}

// overlay applies src on top of l. A surfaces list in src replaces the
// list and every position recorded under it.
func (l *layer) overlay(src layer) {
	l.raw = l.raw.merge(src.raw)
	if src.raw.Surfaces != nil {
		maps.DeleteFunc(l.sources, func(p string, _ Source) bool {
			return p == "surfaces" || strings.HasPrefix(p, "surfaces[")
		})
	}
	maps.Copy(l.sources, src.sources)
}

// loader walks a file and its includes depth first. Includes merge in
// order and the including file is applied last.
type loader struct {
	seen  map[string]bool
	chain []string
	files []string
}

func (l *loader) load(path string) (layer, error) {
	file := canonicalPath(path)
	if i := slices.Index(l.chain, file); i >= 0 {
		cycle := append(slices.Clone(l.chain[i:]), file)
		return layer{}, fmt.Errorf("include cycle detected: %s", strings.Join(cycle, " -> "))
	}
	if l.seen[file] {
		return newLayer(), nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return layer{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	own, err := parseLayer(file, data)
	if err != nil {
		return layer{}, err
	}

	out := newLayer()
	l.chain = append(l.chain, file)
	for i, inc := range own.raw.Include {
		paths, err := expandInclude(file, inc)
		if err != nil {
			pos := own.sources[fmt.Sprintf("include[%d]", i)].Position()
			if pos == "" {
				pos = own.sources["include"].Position()
			}
			return layer{}, fmt.Errorf("%s: include %q: %w", pos, inc, err)
		}
		for _, p := range paths {
			sub, err := l.load(p)
			if err != nil {
				return layer{}, err
			}
			out.overlay(sub)
		}
	}
	l.chain = l.chain[:len(l.chain)-1]

	out.overlay(own)
	l.files = append(l.files, file)
	return out, nil
}

// parseLayer decodes one file strictly and records the position of every
// key and list item in it.
func parseLayer(file string, data []byte) (layer, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}

	out := newLayer()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&out.raw); err != nil && err != io.EOF {
		return layer{}, fmt.Errorf("%s: %w", file, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	recordSources(root, file, "", out.sources)
	return out, nil
}

func recordSources(node *yaml.Node, file, prefix string, out map[string]Source) {
	at := func(n *yaml.Node) Source {
		return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
	}
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			path, val := node.Content[i].Value, node.Content[i+1]
			if prefix != "" {
				path = prefix + "." + path
			}
			out[path] = at(val)
			recordSources(val, file, path, out)
		}
	case yaml.SequenceNode:
		if prefix == "" {
			return
		}
		out[prefix] = at(node)
		for i, item := range node.Content {
			path := fmt.Sprintf("%s[%d]", prefix, i)
			out[path] = at(item)
			recordSources(item, file, path, out)
		}
	}
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// expandInclude turns one include entry into files. Entries may name a
// file, a directory (its *.yaml and *.yml files) or a glob. Results are
// sorted so numbered fragments merge in order.
func expandInclude(baseFile, include string) ([]string, error) {
	path, err := resolveRelative(baseFile, include)
	if err != nil {
		return nil, err
	}

	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				files = append(files, m)
			}
		}
		slices.Sort(files)
		return files, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(path, ent.Name()))
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

// resolveRelative expands a leading ~ and makes p relative to the
// directory of baseFile.
func resolveRelative(baseFile, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is empty")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(filepath.Dir(baseFile), p), nil
}

// resolveSurfacePaths makes image paths absolute against the file that set
// them, or the working directory for paths that came from defaults.
func resolveSurfacePaths(cfg *Config, sources map[string]Source) error {
	for i := range cfg.Surfaces {
		s := &cfg.Surfaces[i]
		if s.Path == "" {
			continue
		}
		key := fmt.Sprintf("surfaces[%d].path", i)
		base := sources[key].File
		if base == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			base = filepath.Join(wd, "config.yaml")
		}
		resolved, err := resolveRelative(base, s.Path)
		if err != nil {
			return &ValidationError{Path: key, Err: err}
		}
		s.Path = resolved
	}
	return nil
}

// withSource points a validation error at the closest recorded position:
// the offending key, or failing that its nearest parent.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for path := verr.Path; path != ""; {
		if src, ok := sources[path]; ok {
			verr.Source = src
			break
		}
		i := strings.LastIndexAny(path, ".[")
		if i <= 0 {
			break
		}
		path = path[:i]
	}
	return verr
}
