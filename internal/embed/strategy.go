// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed inserts map figures into EPUB packages. A Strategy decides
// where the image bytes live (external package asset or inline data URI);
// the Embedder drives the per-mention loop and aggregates the outcome.
package embed

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/epub-atlas/internal/epub"
	"github.com/pdiddy/epub-atlas/pkg/types"
)

// assetDir is the directory under the OPF root where external map images
// are registered.
const assetDir = "images"

// captionStyle matches the rendering the reader applies to figure captions.
const captionStyle = "font-style: italic; text-align: center; font-size: 0.9em; color: #666; margin-top: 0.5em; padding: 0 1em;"

// EmbedError reports a failure registering or rendering a single artifact.
// The orchestrator downgrades it to a skip; it never aborts a run.
type EmbedError struct {
	Key string
	Err error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Key, e.Err)
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

// Strategy is the pluggable artifact-insertion backend. EmbedArtifact makes
// the image bytes addressable and returns the reference the figure will
// use; FigureNode builds the figure element around that reference.
type Strategy interface {
	EmbedArtifact(p *epub.Package, cacheKey string, data []byte) (string, error)
	FigureNode(ref, place string, cfg types.EmbedderConfig, docHref string) (*html.Node, error)
}

// ForConfig returns the strategy selected by cfg. Called once at embedder
// construction, never per mention.
func ForConfig(cfg types.EmbedderConfig) Strategy {
	if cfg.Strategy == types.StrategyInline {
		return Inline{}
	}
	return External{}
}

// MediaType infers an image MIME type from a cache key's file extension,
// falling back to PNG for unrecognized suffixes.
func MediaType(cacheKey string) string {
	switch strings.ToLower(path.Ext(cacheKey)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// External registers images as separate binary assets under images/ and
// references them with a relative link.
type External struct{}

// EmbedArtifact registers the image bytes as a package asset and returns
// its OPF-relative href. A key already registered in this run is reused
// rather than re-registered.
func (External) EmbedArtifact(p *epub.Package, cacheKey string, data []byte) (string, error) {
	href := path.Join(assetDir, cacheKey)
	if p.HasAsset(href) {
		return href, nil
	}
	if err := p.AddAsset(href, MediaType(cacheKey), data); err != nil {
		return "", &EmbedError{Key: cacheKey, Err: err}
	}
	return href, nil
}

// FigureNode builds the figure with the image path made relative to the
// subdocument: one ../ per directory level between the document and the
// OPF root, where assets live.
func (External) FigureNode(ref, place string, cfg types.EmbedderConfig, docHref string) (*html.Node, error) {
	src := strings.Repeat("../", docDepth(docHref)) + ref
	return buildFigure(src, place, cfg)
}

// Inline encodes images as self-contained base64 data URIs; the package
// itself is never mutated.
type Inline struct{}

// EmbedArtifact returns a data URI carrying the image bytes.
func (Inline) EmbedArtifact(_ *epub.Package, cacheKey string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &EmbedError{Key: cacheKey, Err: errors.New("empty image payload")}
	}
	return "data:" + MediaType(cacheKey) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// FigureNode builds the figure with the data URI as the image source;
// no relative-path computation applies.
func (Inline) FigureNode(ref, place string, cfg types.EmbedderConfig, _ string) (*html.Node, error) {
	return buildFigure(ref, place, cfg)
}

// docDepth counts directory levels between a subdocument and the OPF root.
func docDepth(docHref string) int {
	cleaned := path.Clean(docHref)
	if cleaned == "." || cleaned == "" {
		return 0
	}
	return strings.Count(cleaned, "/")
}

// buildFigure assembles the figure/img/figcaption fragment shared by both
// strategies.
func buildFigure(src, place string, cfg types.EmbedderConfig) (*html.Node, error) {
	if src == "" {
		return nil, &EmbedError{Key: place, Err: errors.New("empty image reference")}
	}
	if place == "" {
		return nil, &EmbedError{Key: src, Err: errors.New("empty place name")}
	}

	caption := strings.ReplaceAll(cfg.CaptionTemplate, types.PlacePlaceholder, place)

	fig := element(atom.Figure, "figure")
	if cfg.FigureClass != "" {
		setAttr(fig, "class", cfg.FigureClass)
	}
	if cfg.FigureStyle != "" {
		setAttr(fig, "style", cfg.FigureStyle)
	}

	img := element(atom.Img, "img")
	setAttr(img, "src", src)
	setAttr(img, "alt", caption)
	setAttr(img, "style", fmt.Sprintf("max-width: %dpx;", cfg.MaxImageWidth))
	fig.AppendChild(img)

	figc := element(atom.Figcaption, "figcaption")
	setAttr(figc, "style", captionStyle)
	figc.AppendChild(&html.Node{Type: html.TextNode, Data: caption})
	fig.AppendChild(figc)

	return fig, nil
}

func element(a atom.Atom, name string) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: name}
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
