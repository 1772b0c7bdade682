// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

const generatedOPFPath = "content.opf"

const containerTemplate = `<?xml version="1.0" encoding="utf-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// Write serializes the package to w as an EPUB container: the mimetype
// entry first and uncompressed, modified spine documents re-rendered,
// registered assets appended, everything else carried through.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	mh := &zip.FileHeader{Name: mimetypePath, Method: zip.Store}
	mw, err := zw.CreateHeader(mh)
	if err != nil {
		return fmt.Errorf("creating mimetype entry: %w", err)
	}
	if _, err := mw.Write([]byte(epubMimetype)); err != nil {
		return fmt.Errorf("writing mimetype entry: %w", err)
	}

	if p.opfPath == "" {
		if err := p.writeGenerated(zw); err != nil {
			return err
		}
	} else if err := p.writeFromSource(zw); err != nil {
		return err
	}

	for _, a := range p.assets {
		if err := writeEntry(zw, p.entryName(a.Href), a.Data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing container: %w", err)
	}
	return nil
}

// WriteFile writes the package to an EPUB file at epubPath.
func (p *Package) WriteFile(epubPath string) error {
	f, err := os.Create(epubPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", epubPath, err)
	}
	if err := p.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", epubPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", epubPath, err)
	}
	return nil
}

// writeFromSource replays the original entry order, substituting the
// updated OPF and re-serialized spine documents.
func (p *Package) writeFromSource(zw *zip.Writer) error {
	opf, err := p.updatedOPF()
	if err != nil {
		return err
	}

	docByPath := make(map[string]*Subdocument, len(p.docs))
	for _, d := range p.docs {
		docByPath[d.Path] = d
	}

	for _, name := range p.order {
		switch {
		case name == mimetypePath:
			// Already written as the first entry.
		case name == p.opfPath:
			if err := writeEntry(zw, name, opf); err != nil {
				return err
			}
		case docByPath[name] != nil:
			data, err := docByPath[name].Serialize()
			if err != nil {
				return err
			}
			if err := writeEntry(zw, name, data); err != nil {
				return err
			}
		default:
			if err := writeEntry(zw, name, p.files[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeGenerated emits a minimal container for packages assembled in
// memory: a generated container.xml and OPF around the subdocuments.
func (p *Package) writeGenerated(zw *zip.Writer) error {
	if err := writeEntry(zw, containerPath, []byte(containerTemplate)); err != nil {
		return err
	}

	var opf bytes.Buffer
	opf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	opf.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">` + "\n")
	opf.WriteString("  <metadata xmlns:dc=\"http://purl.org/dc/elements/1.1/\">\n")
	opf.WriteString("    <dc:identifier id=\"pub-id\">epub-atlas-generated</dc:identifier>\n")
	opf.WriteString("    <dc:title>Untitled</dc:title>\n")
	opf.WriteString("    <dc:language>en</dc:language>\n")
	opf.WriteString("  </metadata>\n")
	opf.WriteString("  <manifest>\n")
	for i, d := range p.docs {
		fmt.Fprintf(&opf, "    <item id=\"doc-%d\" href=%q media-type=\"application/xhtml+xml\"/>\n", i, d.Href)
	}
	for i, a := range p.assets {
		fmt.Fprintf(&opf, "    <item id=\"atlas-map-%d\" href=%q media-type=%q/>\n", i, a.Href, a.MediaType)
	}
	opf.WriteString("  </manifest>\n")
	opf.WriteString("  <spine>\n")
	for i := range p.docs {
		fmt.Fprintf(&opf, "    <itemref idref=\"doc-%d\"/>\n", i)
	}
	opf.WriteString("  </spine>\n")
	opf.WriteString("</package>\n")

	if err := writeEntry(zw, generatedOPFPath, opf.Bytes()); err != nil {
		return err
	}

	for _, d := range p.docs {
		data, err := d.Serialize()
		if err != nil {
			return err
		}
		if err := writeEntry(zw, d.Path, data); err != nil {
			return err
		}
	}
	return nil
}

// updatedOPF splices manifest items for newly registered assets into the
// original OPF text, leaving publisher metadata byte-for-byte intact.
func (p *Package) updatedOPF() ([]byte, error) {
	if len(p.assets) == 0 {
		return p.opfRaw, nil
	}

	var items bytes.Buffer
	seq := 0
	for _, a := range p.assets {
		id := fmt.Sprintf("atlas-map-%d", seq)
		for p.manifestIDs[id] {
			seq++
			id = fmt.Sprintf("atlas-map-%d", seq)
		}
		p.manifestIDs[id] = true
		seq++
		fmt.Fprintf(&items, "    <item id=%q href=%q media-type=%q/>\n", id, a.Href, a.MediaType)
	}

	closing := []byte("</manifest>")
	idx := bytes.Index(p.opfRaw, closing)
	if idx < 0 {
		return nil, fmt.Errorf("%s: no closing manifest tag", p.opfPath)
	}

	out := make([]byte, 0, len(p.opfRaw)+items.Len())
	out = append(out, p.opfRaw[:idx]...)
	out = append(out, items.Bytes()...)
	out = append(out, p.opfRaw[idx:]...)
	return out, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	ew, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}
	if _, err := ew.Write(data); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	return nil
}
