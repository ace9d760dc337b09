package labels

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// span locates one element inside a document by byte offset.
type span struct {
	start      int // offset of '<' of the start tag
	innerStart int // offset just past the start tag
	innerEnd   int // offset of '<' of the end tag
	end        int // offset just past the end tag
	attrs      []xml.Attr
}

// selfClosing reports whether the element was written as <x/>.
func (s span) selfClosing() bool {
	return s.innerStart == s.end
}

// attr returns the value of a prefixed attribute such as "w:val".
func (s span) attr(name string) (string, bool) {
	for _, a := range s.attrs {
		if qname(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// attrInt parses a numeric attribute; missing or malformed values report false.
func (s span) attrInt(name string) (int, bool) {
	v, ok := s.attr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// qname renders a raw token name with its prefix, e.g. "w:tbl".
func qname(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

const anyDepth = -1

// findElements scans doc[lo:hi] and returns elements called name. With
// depth set to anyDepth only outermost matches are returned (nested
// elements of the same name are part of their ancestor); otherwise only
// elements at exactly that depth are returned, where the first element of
// the region is depth 1.
//
// Tokens are read raw so namespace prefixes are kept as written and
// offsets map directly onto doc.
func findElements(doc []byte, lo, hi int, name string, depth int) ([]span, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc[lo:hi]))

	var (
		out        []span
		cur        span
		level      int
		matchLevel int
	)

	for {
		before := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			level++
			if matchLevel == 0 && qname(t.Name) == name && (depth == anyDepth || level == depth) {
				matchLevel = level
				cur = span{
					start:      lo + before,
					innerStart: lo + int(dec.InputOffset()),
					attrs:      append([]xml.Attr(nil), t.Attr...),
				}
			}
		case xml.EndElement:
			if matchLevel != 0 && level == matchLevel && qname(t.Name) == name {
				cur.innerEnd = lo + before
				cur.end = lo + int(dec.InputOffset())
				out = append(out, cur)
				matchLevel = 0
			}
			level--
		}
	}

	if matchLevel != 0 {
		return nil, fmt.Errorf("scan %s: element not closed", name)
	}
	return out, nil
}

// firstElement returns the first outermost element called name in doc[lo:hi].
func firstElement(doc []byte, lo, hi int, name string) (span, bool, error) {
	found, err := findElements(doc, lo, hi, name, anyDepth)
	if err != nil || len(found) == 0 {
		return span{}, false, err
	}
	return found[0], true, nil
}

// children returns the direct children called name of the element at parent.
func children(doc []byte, parent span, name string) ([]span, error) {
	if parent.selfClosing() {
		return nil, nil
	}
	return findElements(doc, parent.start, parent.end, name, 2)
}

// firstChild returns the first direct child called name.
func firstChild(doc []byte, parent span, name string) (span, bool, error) {
	found, err := children(doc, parent, name)
	if err != nil || len(found) == 0 {
		return span{}, false, err
	}
	return found[0], true, nil
}

// escapeText escapes s for use as XML character data or attribute value.
func escapeText(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
