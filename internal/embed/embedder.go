// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"fmt"
	"io"
	"sort"

	"golang.org/x/net/html"

	"github.com/pdiddy/epub-atlas/internal/epub"
	"github.com/pdiddy/epub-atlas/internal/match"
	"github.com/pdiddy/epub-atlas/pkg/types"
)

// Embedder runs embedding passes over EPUB packages. The strategy is
// selected once from the validated configuration.
type Embedder struct {
	cfg      types.EmbedderConfig
	strategy Strategy
}

// New validates cfg and returns an embedder, or a *types.ConfigError.
func New(cfg types.EmbedderConfig) (*Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Embedder{cfg: cfg, strategy: ForConfig(cfg)}, nil
}

// EmbedAll inserts one figure per resolvable mention into the package,
// immediately after the mentioned paragraph. Mentions are processed in
// input order; per-mention failures become skip records and never abort
// the run. Structural failures (no documents, no paragraphs) abort before
// any mutation. Status lines go to w when it is non-nil; pass nil for a
// silent run.
func (e *Embedder) EmbedAll(p *epub.Package, mentions []types.PlaceMention, images map[string][]byte, w io.Writer) (*types.EmbedResult, error) {
	refs, err := epub.BuildIndex(p)
	if err != nil {
		return nil, err
	}

	// Map iteration order is not stable; sort once so resolution is
	// reproducible across runs.
	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := &types.EmbedResult{}

	// When several mentions target one paragraph, each figure is inserted
	// after the previous one so figures appear in mention order.
	anchors := map[*html.Node]*html.Node{}

	for _, m := range mentions {
		if m.Paragraph < 0 || m.Paragraph >= len(refs) {
			skip(res, w, m, types.SkipParagraphNotFound,
				fmt.Sprintf("paragraph %d outside 0..%d", m.Paragraph, len(refs)-1))
			continue
		}
		ref := refs[m.Paragraph]

		key, ok := match.Resolve(m.Place, keys)
		if !ok {
			skip(res, w, m, types.SkipNoMatchingArtifact, "no cache key matches place")
			continue
		}

		imgRef, err := e.strategy.EmbedArtifact(p, key, images[key])
		if err != nil {
			skip(res, w, m, types.SkipEmbedFailed, err.Error())
			continue
		}
		fig, err := e.strategy.FigureNode(imgRef, m.Place, e.cfg, ref.Doc.Href)
		if err != nil {
			skip(res, w, m, types.SkipEmbedFailed, err.Error())
			continue
		}

		anchor := ref.Node
		if prev := anchors[ref.Node]; prev != nil {
			anchor = prev
		}
		if anchor.Parent == nil {
			skip(res, w, m, types.SkipEmbedFailed, "paragraph has no parent element")
			continue
		}
		anchor.Parent.InsertBefore(fig, anchor.NextSibling)
		anchors[ref.Node] = fig

		res.Embedded++
		if w != nil {
			fmt.Fprintf(w, "embedded: %s (paragraph %d, %s)\n", m.Place, m.Paragraph, ref.Doc.Path)
		}
	}

	return res, nil
}

func skip(res *types.EmbedResult, w io.Writer, m types.PlaceMention, reason types.SkipReason, detail string) {
	res.Skips = append(res.Skips, types.Skip{Mention: m, Reason: reason, Detail: detail})
	if w != nil {
		fmt.Fprintf(w, "skipped:  %s (paragraph %d): %s\n", m.Place, m.Paragraph, reason)
	}
}
