// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pdiddy/epub-atlas/internal/epub"
	"github.com/pdiddy/epub-atlas/pkg/types"
)

func doc(t *testing.T, path string, paras ...string) *epub.Subdocument {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml"><head><title>t</title></head><body>`)
	for _, p := range paras {
		b.WriteString("<p>" + p + "</p>")
	}
	b.WriteString("</body></html>")

	d, err := epub.NewSubdocument(path, b.String())
	require.NoError(t, err)
	return d
}

// nextElement skips non-element siblings (whitespace text nodes).
func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func TestEmbedAllExternal(t *testing.T) {
	// Two documents, paragraph counts [2, 1]; global index 1 is the second
	// paragraph of the first document.
	d1 := doc(t, "text/chapter1.xhtml", "one", "two")
	d2 := doc(t, "text/chapter2.xhtml", "three")
	p := epub.New(d1, d2)

	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	res, err := e.EmbedAll(p,
		[]types.PlaceMention{{Paragraph: 1, Place: "Rome"}},
		map[string][]byte{"Rome_abc123.png": {0x89, 0x50}},
		nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Embedded)
	assert.Empty(t, res.Skips)

	fig := nextElement(d1.Paragraphs()[1])
	require.NotNil(t, fig, "no node inserted after paragraph")
	assert.Equal(t, "figure", fig.Data)

	img := childElement(fig, "img")
	require.NotNil(t, img)
	assert.Equal(t, "../images/Rome_abc123.png", attrVal(img, "src"))

	require.Len(t, p.Assets(), 1)
	assert.Equal(t, "images/Rome_abc123.png", p.Assets()[0].Href)

	// The other document is untouched.
	assert.Nil(t, nextElement(d2.Paragraphs()[0]))
}

func TestEmbedAllInline(t *testing.T) {
	d1 := doc(t, "ch1.xhtml", "one")
	p := epub.New(d1)

	cfg := types.DefaultEmbedderConfig()
	cfg.Strategy = types.StrategyInline
	e, err := New(cfg)
	require.NoError(t, err)

	res, err := e.EmbedAll(p,
		[]types.PlaceMention{{Paragraph: 0, Place: "Rome"}},
		map[string][]byte{"rome_abc123.png": {1, 2, 3}},
		nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Embedded)

	fig := nextElement(d1.Paragraphs()[0])
	require.NotNil(t, fig)
	img := childElement(fig, "img")
	require.NotNil(t, img)
	assert.True(t, strings.HasPrefix(attrVal(img, "src"), "data:image/png;base64,"))

	// Inline embedding registers no assets.
	assert.Empty(t, p.Assets())
}

func TestEmbedAllParagraphOutOfRange(t *testing.T) {
	p := epub.New(doc(t, "ch1.xhtml", "a", "b", "c"))

	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	res, err := e.EmbedAll(p,
		[]types.PlaceMention{{Paragraph: 5, Place: "Paris"}},
		map[string][]byte{"paris_9f.png": {1}},
		nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Embedded)
	require.Len(t, res.Skips, 1)
	assert.Equal(t, types.SkipParagraphNotFound, res.Skips[0].Reason)
	assert.Equal(t, "Paris", res.Skips[0].Mention.Place)
}

func TestEmbedAllNoMatchingArtifact(t *testing.T) {
	p := epub.New(doc(t, "ch1.xhtml", "a"))

	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	res, err := e.EmbedAll(p,
		[]types.PlaceMention{{Paragraph: 0, Place: "Samarkand"}},
		map[string][]byte{"rome_abc.png": {1}},
		nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Embedded)
	require.Len(t, res.Skips, 1)
	assert.Equal(t, types.SkipNoMatchingArtifact, res.Skips[0].Reason)
}

func TestEmbedAllFaultIsolation(t *testing.T) {
	p := epub.New(doc(t, "ch1.xhtml", "a", "b"))

	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	mentions := []types.PlaceMention{
		{Paragraph: 0, Place: "Rome"},      // resolvable
		{Paragraph: 9, Place: "Paris"},     // out of range
		{Paragraph: 1, Place: "Samarkand"}, // no artifact
		{Paragraph: 1, Place: "Lyon"},      // resolvable
	}
	images := map[string][]byte{
		"rome_abc.png": {1},
		"lyon_def.png": {2},
	}

	var log bytes.Buffer
	res, err := e.EmbedAll(p, mentions, images, &log)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Embedded)
	require.Len(t, res.Skips, 2)
	assert.Equal(t, types.SkipParagraphNotFound, res.Skips[0].Reason)
	assert.Equal(t, types.SkipNoMatchingArtifact, res.Skips[1].Reason)
	assert.Equal(t, 4, res.Total())

	assert.Contains(t, log.String(), "embedded: Rome")
	assert.Contains(t, log.String(), "skipped:  Paris")
}

func TestEmbedAllSameParagraphKeepsMentionOrder(t *testing.T) {
	d := doc(t, "ch1.xhtml", "a")
	p := epub.New(d)

	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	res, err := e.EmbedAll(p,
		[]types.PlaceMention{
			{Paragraph: 0, Place: "Rome"},
			{Paragraph: 0, Place: "Lyon"},
		},
		map[string][]byte{
			"rome_abc.png": {1},
			"lyon_def.png": {2},
		},
		nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Embedded)

	para := d.Paragraphs()[0]
	first := nextElement(para)
	require.NotNil(t, first)
	second := nextElement(first)
	require.NotNil(t, second)

	firstImg := childElement(first, "img")
	secondImg := childElement(second, "img")
	require.NotNil(t, firstImg)
	require.NotNil(t, secondImg)
	assert.Contains(t, attrVal(firstImg, "src"), "rome_abc.png")
	assert.Contains(t, attrVal(secondImg, "src"), "lyon_def.png")
}

func TestEmbedAllRepeatedPlaceReusesAsset(t *testing.T) {
	d := doc(t, "ch1.xhtml", "a", "b")
	p := epub.New(d)

	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	res, err := e.EmbedAll(p,
		[]types.PlaceMention{
			{Paragraph: 0, Place: "Rome"},
			{Paragraph: 1, Place: "Rome"},
		},
		map[string][]byte{"rome_abc.png": {1}},
		nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Embedded)
	assert.Len(t, p.Assets(), 1)
}

func TestEmbedAllStructuralFailure(t *testing.T) {
	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	_, err = e.EmbedAll(epub.New(), nil, nil, nil)
	var serr *epub.StructureError
	require.ErrorAs(t, err, &serr)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := types.DefaultEmbedderConfig()
	cfg.CaptionTemplate = "no placeholder"

	_, err := New(cfg)
	var cerr *types.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "caption_template", cerr.Field)
}

func TestEmbedAllEmptyMentions(t *testing.T) {
	p := epub.New(doc(t, "ch1.xhtml", "a"))

	e, err := New(types.DefaultEmbedderConfig())
	require.NoError(t, err)

	res, err := e.EmbedAll(p, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Embedded)
	assert.Empty(t, res.Skips)
}
