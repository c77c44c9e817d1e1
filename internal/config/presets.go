package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/erazemk/shramba/internal/model"
)

// Presets are the suggestions offered when adding or editing an item.
type Presets struct {
	Locations  []string          `json:"locations"`
	Categories []string          `json:"categories"`
	Icons      map[string]string `json:"icons"`
}

// DefaultPresets returns the built-in presets.
func DefaultPresets() Presets {
	icons := make(map[string]string, len(model.DefaultCategoryIcons))
	for k, v := range model.DefaultCategoryIcons {
		icons[k] = v
	}
	return Presets{
		Locations:  append([]string(nil), model.PresetLocations...),
		Categories: append([]string(nil), model.PresetCategories...),
		Icons:      icons,
	}
}

// LoadPresets reads a JSONC presets file. Lists present in the file replace
// the defaults; icons are merged over them. An empty path or a missing file
// yields the defaults.
func LoadPresets(path string) (Presets, error) {
	p := DefaultPresets()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("reading presets: %w", err)
	}

	return parsePresets(data)
}

func parsePresets(data []byte) (Presets, error) {
	p := DefaultPresets()

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return p, fmt.Errorf("parsing presets: %w", err)
	}

	var file Presets
	if err := json.Unmarshal(standardized, &file); err != nil {
		return p, fmt.Errorf("parsing presets: %w", err)
	}

	if file.Locations != nil {
		p.Locations = file.Locations
	}
	if file.Categories != nil {
		p.Categories = file.Categories
	}
	for k, v := range file.Icons {
		p.Icons[k] = v
	}
	return p, nil
}
