package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Paths use dotted keys and bracketed list indexes:
//
//	log_level
//	tick_interval
//	window.width
//	limits.max_surfaces
//	surfaces[1].opacity
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	node := &root
	for _, seg := range splitPath(path) {
		switch {
		case seg.index >= 0:
			if node.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("unknown config path %q: %s is not a list", path, seg.key)
			}
			if seg.index >= len(node.Content) {
				return nil, fmt.Errorf("unknown config path %q: index %d out of range", path, seg.index)
			}
			node = node.Content[seg.index]
		default:
			next := mappingValue(node, seg.key)
			if next == nil {
				return nil, fmt.Errorf("unknown config path %q", path)
			}
			node = next
		}
	}

	var out any
	if err := node.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", path, err)
	}
	return out, nil
}

type pathSegment struct {
	key   string
	index int
}

// splitPath turns "surfaces[1].name" into [surfaces, [1], name].
func splitPath(path string) []pathSegment {
	var out []pathSegment
	for _, part := range strings.Split(path, ".") {
		key, rest, _ := strings.Cut(part, "[")
		if key != "" {
			out = append(out, pathSegment{key: key, index: -1})
		}
		for rest != "" {
			idxStr, after, ok := strings.Cut(rest, "]")
			if !ok {
				break
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 {
				idx = 1 << 30
			}
			out = append(out, pathSegment{key: key, index: idx})
			rest = strings.TrimPrefix(after, "[")
		}
	}
	return out
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
