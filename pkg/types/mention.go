// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PlaceMention ties an AI-identified place name to the global paragraph
// index where it was mentioned. The paragraph index counts p elements
// across all spine documents in reading order, zero-based.
type PlaceMention struct {
	Paragraph int    `json:"paragraph" yaml:"paragraph"`
	Place     string `json:"place" yaml:"place"`
}
