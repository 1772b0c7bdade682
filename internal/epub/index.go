// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package epub

import "golang.org/x/net/html"

// StructureError reports a package that cannot anchor any embedding:
// no spine documents, or no paragraphs in any of them.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "invalid epub structure: " + e.Reason
}

// ParagraphRef locates one paragraph globally: its owning subdocument,
// its node handle, its position within the document, and its position in
// the package-wide ordering.
type ParagraphRef struct {
	Doc    *Subdocument
	Node   *html.Node
	Local  int
	Global int
}

// BuildIndex walks spine documents in reading order and assigns each p
// element a zero-based, strictly increasing global index. The index is a
// read view: it never mutates the package, and it must be rebuilt rather
// than reused once the package's paragraph set changes. Node handles stay
// valid while figures are inserted as siblings during a single pass.
func BuildIndex(p *Package) ([]ParagraphRef, error) {
	if len(p.docs) == 0 {
		return nil, &StructureError{Reason: "no spine documents"}
	}

	var refs []ParagraphRef
	for _, d := range p.docs {
		for i, n := range d.Paragraphs() {
			refs = append(refs, ParagraphRef{Doc: d, Node: n, Local: i, Global: len(refs)})
		}
	}
	if len(refs) == 0 {
		return nil, &StructureError{Reason: "no paragraphs in any spine document"}
	}
	return refs, nil
}
