// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data types for the map embedding
// pipeline: embedder configuration, place mentions, and run results.
package types

import (
	"fmt"
	"strings"
)

// EmbedStrategy selects where embedded map image bytes live: as a separate
// binary asset inside the EPUB package, or inlined as a base64 data URI.
type EmbedStrategy string

const (
	StrategyExternal EmbedStrategy = "external"
	StrategyInline   EmbedStrategy = "inline"
)

// PlacePlaceholder is the substitution marker a caption template must
// contain; it is replaced by the place name when a figure is built.
const PlacePlaceholder = "{place}"

// EmbedderConfig holds the presentation and output settings for a single
// embedding run. Construct with DefaultEmbedderConfig and override fields,
// then call Validate before use.
type EmbedderConfig struct {
	// FigureClass is the CSS class set on inserted figure elements. May be empty.
	FigureClass string `json:"figure_class" yaml:"figure_class"`

	// FigureStyle is a freeform style declaration for figure elements. May be empty.
	FigureStyle string `json:"figure_style" yaml:"figure_style"`

	// CaptionTemplate is the figure caption with a {place} placeholder
	// (default "Map of {place}").
	CaptionTemplate string `json:"caption_template" yaml:"caption_template"`

	// Strategy selects external asset registration or inline data URIs.
	Strategy EmbedStrategy `json:"embed_strategy" yaml:"embed_strategy"`

	// MaxImageWidth caps the rendered image width in pixels (default 600).
	MaxImageWidth int `json:"max_image_width" yaml:"max_image_width"`
}

// DefaultEmbedderConfig returns the standard configuration.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		CaptionTemplate: "Map of {place}",
		Strategy:        StrategyExternal,
		MaxImageWidth:   600,
	}
}

// ConfigError reports a configuration field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration and returns a *ConfigError naming the
// first invalid field, or nil.
func (c EmbedderConfig) Validate() error {
	if c.CaptionTemplate == "" {
		return &ConfigError{Field: "caption_template", Reason: "must not be empty"}
	}
	if !strings.Contains(c.CaptionTemplate, PlacePlaceholder) {
		return &ConfigError{Field: "caption_template", Reason: "missing " + PlacePlaceholder + " placeholder"}
	}
	switch c.Strategy {
	case StrategyExternal, StrategyInline:
	default:
		return &ConfigError{Field: "embed_strategy", Reason: fmt.Sprintf("unknown strategy %q (want external or inline)", string(c.Strategy))}
	}
	if c.MaxImageWidth <= 0 {
		return &ConfigError{Field: "max_image_width", Reason: "must be a positive pixel count"}
	}
	return nil
}
