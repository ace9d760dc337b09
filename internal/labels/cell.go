package labels

import (
	"fmt"
	"math"
	"strings"
)

// Namespaces for the inline picture markup. They are declared on the
// elements that use them so the template's root element can stay as is.
const (
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

const pageBreakParagraph = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`

const centeredParagraphProps = `<w:pPr><w:spacing w:before="0" w:after="0"/><w:jc w:val="center"/></w:pPr>`

// cellStyle controls how one label cell is rendered.
type cellStyle struct {
	FontName       string
	FontSizePt     float64
	CurrencySuffix string
	ImageCX        int64 // EMU
	ImageCY        int64 // EMU
}

// fitImage scales the configured image size down so it fits a cell of
// the given width in millimetres, keeping the aspect ratio. A 1 mm margin
// is left on each side.
func (s cellStyle) fitImage(cellWidthMM float64) cellStyle {
	if cellWidthMM <= 2 || s.ImageCX <= 0 {
		return s
	}
	maxCX := int64((cellWidthMM - 2) * emuPerMM)
	if s.ImageCX <= maxCX {
		return s
	}
	scale := float64(maxCX) / float64(s.ImageCX)
	s.ImageCX = maxCX
	s.ImageCY = int64(math.Round(float64(s.ImageCY) * scale))
	return s
}

func halfPoints(pt float64) int {
	hp := int(math.Round(pt * 2))
	if hp < 2 {
		hp = 2
	}
	return hp
}

// runProps builds run properties; price runs are bold and boxed.
func (s cellStyle) runProps(sizePt float64, price bool) string {
	var b strings.Builder
	b.WriteString("<w:rPr>")
	if s.FontName != "" {
		f := escapeText(s.FontName)
		fmt.Fprintf(&b, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s" w:cs="%s"/>`, f, f, f, f)
	}
	if price {
		b.WriteString("<w:b/>")
	}
	hp := halfPoints(sizePt)
	fmt.Fprintf(&b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, hp, hp)
	if price {
		b.WriteString(`<w:bdr w:val="single" w:sz="4" w:space="0" w:color="000000"/>`)
	}
	b.WriteString("</w:rPr>")
	return b.String()
}

func textRun(props, text string) string {
	return `<w:r>` + props + `<w:t xml:space="preserve">` + escapeText(text) + `</w:t></w:r>`
}

// priceText joins the display price and currency suffix.
func (s cellStyle) priceText(item Item) string {
	if item.Price == "" {
		return ""
	}
	return item.Price + s.CurrencySuffix
}

// imageParagraph is a centred paragraph holding one inline picture.
func (s cellStyle) imageParagraph(relID string, docPrID int, code string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	b.WriteString(centeredParagraphProps)
	b.WriteString("<w:r><w:drawing>")
	fmt.Fprintf(&b, `<wp:inline xmlns:wp="%s" distT="0" distB="0" distL="0" distR="0">`, nsWP)
	fmt.Fprintf(&b, `<wp:extent cx="%d" cy="%d"/>`, s.ImageCX, s.ImageCY)
	fmt.Fprintf(&b, `<wp:docPr id="%d" name="Barcode %d" descr="%s"/>`, docPrID, docPrID, escapeText(code))
	fmt.Fprintf(&b, `<wp:cNvGraphicFramePr><a:graphicFrameLocks xmlns:a="%s" noChangeAspect="1"/></wp:cNvGraphicFramePr>`, nsA)
	fmt.Fprintf(&b, `<a:graphic xmlns:a="%s"><a:graphicData uri="%s">`, nsA, nsPic)
	fmt.Fprintf(&b, `<pic:pic xmlns:pic="%s">`, nsPic)
	fmt.Fprintf(&b, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s.png"/><pic:cNvPicPr/></pic:nvPicPr>`, docPrID, escapeText(code))
	fmt.Fprintf(&b, `<pic:blipFill><a:blip xmlns:r="%s" r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, nsR, relID)
	fmt.Fprintf(&b, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`, s.ImageCX, s.ImageCY)
	b.WriteString("</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>")
	return b.String()
}

// textParagraph holds the product name followed by the price, which is
// boxed with a character border.
func (s cellStyle) textParagraph(item Item) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	b.WriteString(centeredParagraphProps)
	b.WriteString(textRun(s.runProps(s.FontSizePt, false), item.Name+" "))
	if price := s.priceText(item); price != "" {
		b.WriteString(textRun(s.runProps(s.FontSizePt, true), price))
	}
	b.WriteString("</w:p>")
	return b.String()
}

// fallbackParagraph is used when no barcode image exists for the item: the
// text line followed by the code printed in a smaller size.
func (s cellStyle) fallbackParagraph(item Item) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	b.WriteString(centeredParagraphProps)

	line := item.Name
	if price := s.priceText(item); price != "" {
		line += " " + price
	}
	b.WriteString(textRun(s.runProps(s.FontSizePt, false), line))
	b.WriteString("<w:r><w:br/></w:r>")
	b.WriteString(textRun(s.runProps(s.FontSizePt*0.8, false), item.Code))
	b.WriteString("</w:p>")
	return b.String()
}

// cellXML renders a complete <w:tc>. A nil item yields an empty cell, which
// still needs one paragraph to be valid.
func cellXML(cell templateCell, doc []byte, content string) string {
	var b strings.Builder
	if cell.selfClosing() {
		b.WriteString("<w:tc>")
	} else {
		b.Write(doc[cell.start:cell.innerStart])
	}
	b.WriteString(cell.props)
	if content == "" {
		content = "<w:p/>"
	}
	b.WriteString(content)
	b.WriteString("</w:tc>")
	return b.String()
}
