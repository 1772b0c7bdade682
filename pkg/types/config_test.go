// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"
)

func TestDefaultEmbedderConfigIsValid(t *testing.T) {
	if err := DefaultEmbedderConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestEmbedderConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*EmbedderConfig)
		wantField string
	}{
		{
			name:      "empty caption template",
			mutate:    func(c *EmbedderConfig) { c.CaptionTemplate = "" },
			wantField: "caption_template",
		},
		{
			name:      "caption template without placeholder",
			mutate:    func(c *EmbedderConfig) { c.CaptionTemplate = "Map of somewhere" },
			wantField: "caption_template",
		},
		{
			name:      "unknown strategy",
			mutate:    func(c *EmbedderConfig) { c.Strategy = "base85" },
			wantField: "embed_strategy",
		},
		{
			name:      "zero image width",
			mutate:    func(c *EmbedderConfig) { c.MaxImageWidth = 0 },
			wantField: "max_image_width",
		},
		{
			name:      "negative image width",
			mutate:    func(c *EmbedderConfig) { c.MaxImageWidth = -10 },
			wantField: "max_image_width",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEmbedderConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("error %v is not a *ConfigError", err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", cerr.Field, tt.wantField)
			}
		})
	}
}

func TestEmbedderConfigValidateAcceptsInline(t *testing.T) {
	cfg := DefaultEmbedderConfig()
	cfg.Strategy = StrategyInline
	if err := cfg.Validate(); err != nil {
		t.Fatalf("inline strategy rejected: %v", err)
	}
}

func TestEmbedResultCounts(t *testing.T) {
	res := EmbedResult{
		Embedded: 3,
		Skips: []Skip{
			{Mention: PlaceMention{Paragraph: 9, Place: "Atlantis"}, Reason: SkipNoMatchingArtifact},
		},
	}
	if got := res.Skipped(); got != 1 {
		t.Errorf("Skipped() = %d, want 1", got)
	}
	if got := res.Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
	if !res.HasSkips() {
		t.Error("HasSkips() = false, want true")
	}
}
