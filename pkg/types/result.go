// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SkipReason classifies why a single mention produced no figure.
type SkipReason string

const (
	// SkipParagraphNotFound means the mention's paragraph index is outside
	// the package's paragraph range.
	SkipParagraphNotFound SkipReason = "paragraph_not_found"

	// SkipNoMatchingArtifact means no cache key could be resolved for the
	// place name.
	SkipNoMatchingArtifact SkipReason = "no_matching_artifact"

	// SkipEmbedFailed means the strategy failed to register or encode the
	// image, or to build or insert the figure.
	SkipEmbedFailed SkipReason = "embed_failed"
)

// Skip records one skipped mention with its reason.
type Skip struct {
	Mention PlaceMention `json:"mention" yaml:"mention"`
	Reason  SkipReason   `json:"reason" yaml:"reason"`
	Detail  string       `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// EmbedResult aggregates the outcome of one embedding run. Per-mention
// failures are downgraded to Skips; only structural preconditions abort
// a run.
type EmbedResult struct {
	Embedded int    `json:"embedded" yaml:"embedded"`
	Skips    []Skip `json:"skips,omitempty" yaml:"skips,omitempty"`
}

// Skipped returns the number of mentions that produced no figure.
func (r EmbedResult) Skipped() int {
	return len(r.Skips)
}

// Total returns the number of mentions processed.
func (r EmbedResult) Total() int {
	return r.Embedded + len(r.Skips)
}

// HasSkips reports whether any mention was skipped.
func (r EmbedResult) HasSkips() bool {
	return len(r.Skips) > 0
}
