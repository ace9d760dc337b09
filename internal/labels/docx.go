package labels

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"
	defaultDocPart   = "word/document.xml"

	relsNamespace     = "http://schemas.openxmlformats.org/package/2006/relationships"
	imageRelType      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	officeDocRelType  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	emptyRelationship = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="` + relsNamespace + `"></Relationships>`
)

// docxPackage is an in-memory copy of a .docx (OPC zip) container. Part
// data is never mutated in place; set replaces the slice, so clones can
// share unchanged parts.
type docxPackage struct {
	names []string
	parts map[string][]byte
}

func readPackage(r io.ReaderAt, size int64) (*docxPackage, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	pkg := &docxPackage{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		pkg.set(f.Name, data)
	}

	if _, ok := pkg.parts[contentTypesPart]; !ok {
		return nil, fmt.Errorf("open docx: missing %s", contentTypesPart)
	}
	return pkg, nil
}

func (p *docxPackage) clone() *docxPackage {
	c := &docxPackage{
		names: append([]string(nil), p.names...),
		parts: make(map[string][]byte, len(p.parts)),
	}
	for k, v := range p.parts {
		c.parts[k] = v
	}
	return c
}

func (p *docxPackage) get(name string) ([]byte, bool) {
	data, ok := p.parts[name]
	return data, ok
}

func (p *docxPackage) set(name string, data []byte) {
	if _, ok := p.parts[name]; !ok {
		p.names = append(p.names, name)
	}
	p.parts[name] = data
}

// writeTo serialises the package. [Content_Types].xml is always written
// first, which some consumers expect.
func (p *docxPackage) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	write := func(name string) error {
		fw, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = fw.Write(p.parts[name])
		return err
	}

	if err := write(contentTypesPart); err != nil {
		return fmt.Errorf("write %s: %w", contentTypesPart, err)
	}
	for _, name := range p.names {
		if name == contentTypesPart {
			continue
		}
		if err := write(name); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return zw.Close()
}

func (p *docxPackage) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.writeTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mainDocumentPart resolves the officeDocument relationship from
// _rels/.rels, falling back to word/document.xml.
func (p *docxPackage) mainDocumentPart() (string, error) {
	rels, ok := p.get(packageRelsPart)
	if !ok {
		if _, ok := p.get(defaultDocPart); ok {
			return defaultDocPart, nil
		}
		return "", fmt.Errorf("docx has no %s", packageRelsPart)
	}

	found, err := findElements(rels, 0, len(rels), "Relationship", anyDepth)
	if err != nil {
		return "", err
	}
	for _, rel := range found {
		if t, _ := rel.attr("Type"); t != officeDocRelType {
			continue
		}
		target, _ := rel.attr("Target")
		target = strings.TrimPrefix(target, "/")
		if _, ok := p.get(target); !ok {
			return "", fmt.Errorf("main document %s not found in package", target)
		}
		return target, nil
	}

	if _, ok := p.get(defaultDocPart); ok {
		return defaultDocPart, nil
	}
	return "", fmt.Errorf("docx has no main document")
}

// relsPartFor returns the relationship part for a part, e.g.
// word/document.xml -> word/_rels/document.xml.rels.
func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// addImage stores a PNG under the document's media folder and registers
// an image relationship for it. The relationship ID is returned.
func (p *docxPackage) addImage(docPart, fileName string, data []byte) (string, error) {
	relsPart := relsPartFor(docPart)
	rels, ok := p.get(relsPart)
	if !ok {
		rels = []byte(emptyRelationship)
	}

	closing := bytes.LastIndex(rels, []byte("</Relationships>"))
	if closing < 0 {
		return "", fmt.Errorf("%s: malformed relationships part", relsPart)
	}

	id := ""
	for n := 1; ; n++ {
		id = fmt.Sprintf("rIdLbl%d", n)
		if !bytes.Contains(rels, []byte(`Id="`+id+`"`)) {
			break
		}
	}

	mediaPart := path.Join(path.Dir(docPart), "media", fileName)
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="media/%s"/>`, id, imageRelType, escapeText(fileName))

	out := make([]byte, 0, len(rels)+len(rel))
	out = append(out, rels[:closing]...)
	out = append(out, rel...)
	out = append(out, rels[closing:]...)

	p.set(relsPart, out)
	p.set(mediaPart, data)

	if err := p.ensureDefaultContentType("png", "image/png"); err != nil {
		return "", err
	}
	return id, nil
}

func (p *docxPackage) ensureDefaultContentType(ext, contentType string) error {
	types, _ := p.get(contentTypesPart)
	if bytes.Contains(bytes.ToLower(types), []byte(`extension="`+ext+`"`)) {
		return nil
	}

	closing := bytes.LastIndex(types, []byte("</Types>"))
	if closing < 0 {
		return fmt.Errorf("%s: malformed content types part", contentTypesPart)
	}

	entry := fmt.Sprintf(`<Default Extension="%s" ContentType="%s"/>`, ext, contentType)
	out := make([]byte, 0, len(types)+len(entry))
	out = append(out, types[:closing]...)
	out = append(out, entry...)
	out = append(out, types[closing:]...)
	p.set(contentTypesPart, out)
	return nil
}
