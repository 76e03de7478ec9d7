// Package pdftest writes small text-only PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	// PageWidth and PageHeight are A4 in points
	PageWidth  = 595.0
	PageHeight = 842.0

	// GlyphWidth is the advance of every character, in thousandths of the
	// font size
	GlyphWidth = 500
)

// Text is a string placed with its top-left corner at (X, Top), measured
// from the top of the page.
type Text struct {
	S    string
	X    float64
	Top  float64
	Size float64
}

// Page is the list of strings drawn on one page
type Page []Text

// Width returns the rendered width of s at the given font size
func Width(s string, size float64) float64 {
	return float64(len(s)) * GlyphWidth / 1000 * size
}

// Build returns a PDF with one Helvetica text page per element of pages
func Build(pages ...Page) []byte {
	var objects []string

	// 1 catalog, 2 page tree, 3 font, then a page and content pair per page
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %g %g] >>",
			strings.Join(kids, " "), len(pages), PageWidth, PageHeight),
		fontObject(),
	)

	for i, p := range pages {
		content := contentStream(p)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WriteFile writes Build(pages...) to path
func WriteFile(path string, pages ...Page) error {
	return os.WriteFile(path, Build(pages...), 0o600)
}

func fontObject() string {
	widths := make([]string, 95)
	for i := range widths {
		widths[i] = fmt.Sprint(GlyphWidth)
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding "+
		"/FirstChar 32 /LastChar 126 /Widths [%s] >>", strings.Join(widths, " "))
}

func contentStream(p Page) string {
	var b strings.Builder
	for _, t := range p {
		size := t.Size
		if size == 0 {
			size = 10
		}
		baseline := PageHeight - t.Top - size
		fmt.Fprintf(&b, "BT /F1 %g Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", size, t.X, baseline, escape(t.S))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
