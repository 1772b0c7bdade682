// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mentions reads and writes place-mention files, the on-disk form
// of the AI extraction output consumed by the embedder. YAML is the
// default; .json files are accepted for tooling that emits JSON.
package mentions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/epub-atlas/pkg/types"
)

// File is the on-disk representation of extracted place mentions.
type File struct {
	Mentions []types.PlaceMention `json:"mentions" yaml:"mentions"`
}

// Load reads mentions from a YAML or JSON file.
func Load(path string) ([]types.PlaceMention, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mentions file: %w", err)
	}

	var f File
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing mentions file %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing mentions file %s: %w", path, err)
		}
	}

	for i, m := range f.Mentions {
		if m.Place == "" {
			return nil, fmt.Errorf("mentions file %s: entry %d has no place name", path, i)
		}
	}
	return f.Mentions, nil
}

// Write saves mentions to a YAML file.
func Write(path string, ms []types.PlaceMention) error {
	data, err := yaml.Marshal(File{Mentions: ms})
	if err != nil {
		return fmt.Errorf("marshaling mentions: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
