// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package epub models an EPUB package as a set of spine-ordered XHTML
// subdocuments plus binary assets. Subdocuments are held as parsed trees
// so callers can insert nodes at paragraph level; everything else in the
// container is carried through untouched on write.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	containerPath = "META-INF/container.xml"
	mimetypePath  = "mimetype"
	epubMimetype  = "application/epub+zip"
)

// Subdocument is one spine document: a stable path and a parsed XHTML tree.
type Subdocument struct {
	// Path is the zip entry name within the package.
	Path string
	// Href is the document path relative to the OPF directory. Figure image
	// references are computed against this.
	Href string

	doc *goquery.Document
}

// NewSubdocument parses content as XHTML and returns a subdocument rooted
// at the given path. Used for in-memory package construction.
func NewSubdocument(docPath, content string) (*Subdocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", docPath, err)
	}
	return &Subdocument{Path: docPath, Href: docPath, doc: doc}, nil
}

// Paragraphs returns the document's p element nodes in document order.
// The returned handles stay valid across sibling insertions.
func (d *Subdocument) Paragraphs() []*html.Node {
	return d.doc.Find("p").Nodes
}

// Find exposes the underlying tree for selector queries.
func (d *Subdocument) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Serialize renders the tree back to bytes with an XML declaration.
func (d *Subdocument) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	if len(d.doc.Selection.Nodes) == 0 {
		return nil, fmt.Errorf("serializing %s: empty document tree", d.Path)
	}
	if err := html.Render(&buf, d.doc.Selection.Nodes[0]); err != nil {
		return nil, fmt.Errorf("serializing %s: %w", d.Path, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Asset is a binary file registered into the package, addressed by an
// href relative to the OPF directory.
type Asset struct {
	Href      string
	MediaType string
	Data      []byte
}

// Package is an EPUB container open for modification.
type Package struct {
	docs   []*Subdocument
	assets []Asset

	// Source container state, empty for in-memory packages.
	files    map[string][]byte
	order    []string
	docPaths map[string]bool
	opfPath  string
	opfDir   string
	opfRaw   []byte

	manifestIDs   map[string]bool
	manifestHrefs map[string]bool
}

// New builds an in-memory package from spine-ordered subdocuments.
func New(docs ...*Subdocument) *Package {
	p := &Package{
		docs:          docs,
		files:         map[string][]byte{},
		docPaths:      map[string]bool{},
		opfDir:        ".",
		manifestIDs:   map[string]bool{},
		manifestHrefs: map[string]bool{},
	}
	for _, d := range docs {
		p.docPaths[d.Path] = true
	}
	return p
}

// Subdocuments returns the spine documents in reading order.
func (p *Package) Subdocuments() []*Subdocument {
	return p.docs
}

// Assets returns the binary assets registered since the package was opened.
func (p *Package) Assets() []Asset {
	return p.assets
}

// HasAsset reports whether an asset is already registered under href.
func (p *Package) HasAsset(href string) bool {
	href = path.Clean(href)
	for _, a := range p.assets {
		if a.Href == href {
			return true
		}
	}
	return false
}

// AddAsset registers raw bytes as a new binary asset. The href is relative
// to the OPF directory (e.g. "images/rome_abc123.png"). Registration fails
// for empty payloads and for hrefs already present in the package.
func (p *Package) AddAsset(href, mediaType string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("asset %s: empty payload", href)
	}
	href = path.Clean(href)
	if href == "" || href == "." || strings.HasPrefix(href, "..") {
		return fmt.Errorf("asset %q: invalid href", href)
	}
	if p.HasAsset(href) {
		return fmt.Errorf("asset %s: already registered", href)
	}
	if p.manifestHrefs[href] {
		return fmt.Errorf("asset %s: conflicts with existing manifest entry", href)
	}
	if _, exists := p.files[p.entryName(href)]; exists {
		return fmt.Errorf("asset %s: conflicts with existing package file", href)
	}
	p.assets = append(p.assets, Asset{Href: href, MediaType: mediaType, Data: data})
	return nil
}

// entryName maps an OPF-relative href to its zip entry name.
func (p *Package) entryName(href string) string {
	if p.opfDir == "." || p.opfDir == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(p.opfDir, href))
}

// containerXML mirrors META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// opfPackage mirrors the parts of the OPF package document needed to walk
// the spine. The raw OPF bytes are kept aside so metadata survives writes.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Itemrefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// Read opens an EPUB file from disk.
func Read(epubPath string) (*Package, error) {
	f, err := os.Open(epubPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", epubPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", epubPath, err)
	}
	p, err := ReadFrom(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", epubPath, err)
	}
	return p, nil
}

// ReadFrom opens an EPUB container from an in-memory or seekable source.
func ReadFrom(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}

	p := &Package{
		files:         map[string][]byte{},
		docPaths:      map[string]bool{},
		manifestIDs:   map[string]bool{},
		manifestHrefs: map[string]bool{},
	}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("opening entry %s: %w", zf.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading entry %s: %w", zf.Name, err)
		}
		p.files[zf.Name] = data
		p.order = append(p.order, zf.Name)
	}

	container, ok := p.files[containerPath]
	if !ok {
		return nil, fmt.Errorf("no %s entry", containerPath)
	}
	var c containerXML
	if err := xml.Unmarshal(container, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", containerPath, err)
	}
	if len(c.Rootfiles) == 0 {
		return nil, fmt.Errorf("%s names no rootfile", containerPath)
	}
	p.opfPath = c.Rootfiles[0].FullPath
	p.opfDir = path.Dir(p.opfPath)

	p.opfRaw, ok = p.files[p.opfPath]
	if !ok {
		return nil, fmt.Errorf("rootfile %s not in container", p.opfPath)
	}
	var opf opfPackage
	if err := xml.Unmarshal(p.opfRaw, &opf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p.opfPath, err)
	}

	byID := make(map[string]opfItem, len(opf.Manifest.Items))
	for _, item := range opf.Manifest.Items {
		byID[item.ID] = item
		p.manifestIDs[item.ID] = true
		p.manifestHrefs[path.Clean(item.Href)] = true
	}

	for _, ref := range opf.Spine.Itemrefs {
		item, ok := byID[ref.IDRef]
		if !ok {
			continue
		}
		if !strings.Contains(item.MediaType, "html") {
			continue
		}
		entry := p.entryName(item.Href)
		content, ok := p.files[entry]
		if !ok {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
		if err != nil {
			// Malformed spine documents are left as-is rather than
			// failing the whole package.
			continue
		}
		p.docs = append(p.docs, &Subdocument{
			Path: entry,
			Href: path.Clean(item.Href),
			doc:  doc,
		})
		p.docPaths[entry] = true
	}

	return p, nil
}
