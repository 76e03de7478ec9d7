package pdf

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
	"github.com/ledongthuc/pdf"
)

const (
	// defaultPageHeight is US Letter, used when a page carries no MediaBox
	defaultPageHeight = 792.0

	// baselineTolerance is how far apart two glyph baselines may be and
	// still belong to the same word
	baselineTolerance = 1.0

	// wordGapRatio is the horizontal gap, as a fraction of the font size,
	// above which two glyphs start separate words
	wordGapRatio = 0.25

	// defaultFontSize applies when the content stream reports none
	defaultFontSize = 10.0
)

// Document is an opened PDF exposing positioned word tokens per page.
// It implements sondage.PageSource.
type Document struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenDocument opens the PDF at path for token extraction
func OpenDocument(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{file: f, reader: r}, nil
}

// Close releases the underlying file
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// Tokens returns the word tokens of a page (1-based) in top-down
// coordinates. The PDF library panics on malformed content streams; those
// panics are returned as errors.
func (d *Document) Tokens(pageNum int) (tokens []sondage.Token, err error) {
	if pageNum < 1 || pageNum > d.reader.NumPage() {
		return nil, fmt.Errorf("invalid page number %d (document has %d pages)", pageNum, d.reader.NumPage())
	}

	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = fmt.Errorf("failed to read content of page %d: %v", pageNum, r)
		}
	}()

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", pageNum)
	}

	content := page.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			FontSize: t.FontSize,
		})
	}

	return GroupWords(glyphs, pageHeight(page)), nil
}

// pageHeight reads the MediaBox of the page, walking up the page tree
// since the box is inheritable.
func pageHeight(page pdf.Page) float64 {
	for v, depth := page.V, 0; !v.IsNull() && depth < 32; v, depth = v.Key("Parent"), depth+1 {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

// Glyph is one positioned text run as reported by the content stream, in
// PDF user space (origin bottom-left, Y on the baseline).
type Glyph struct {
	Text     string
	X        float64
	Y        float64
	W        float64
	FontSize float64
}

// GroupWords joins glyphs sharing a baseline into whitespace separated
// words and flips them into top-down coordinates for a page of the given
// height. Tokens come out sorted top to bottom, then left to right.
func GroupWords(glyphs []Glyph, height float64) []sondage.Token {
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sameBaseline(sorted[i], sorted[j]) {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		tokens []sondage.Token
		word   strings.Builder
		cur    sondage.Token
		prev   Glyph
		open   bool
	)

	flush := func() {
		if open {
			cur.Text = word.String()
			tokens = append(tokens, cur)
		}
		word.Reset()
		open = false
	}

	for _, g := range sorted {
		size := g.FontSize
		if size <= 0 {
			size = defaultFontSize
		}

		if strings.TrimSpace(g.Text) == "" {
			flush()
			prev = g
			continue
		}

		if open && (!sameBaseline(prev, g) || g.X-(prev.X+prev.W) > size*wordGapRatio) {
			flush()
		}

		// a single run may itself contain spaces
		parts := strings.FieldsFunc(g.Text, unicode.IsSpace)
		if len(parts) > 1 || startsOrEndsWithSpace(g.Text) {
			flush()
			for _, p := range splitRun(g, size) {
				tokens = append(tokens, flipped(p, height))
			}
			prev = g
			continue
		}

		top := height - (g.Y + size)
		bottom := height - g.Y
		if !open {
			cur = sondage.Token{X0: g.X, X1: g.X + g.W, Top: top, Bottom: bottom}
			open = true
		} else {
			cur.X1 = g.X + g.W
			cur.Top = min(cur.Top, top)
			cur.Bottom = max(cur.Bottom, bottom)
		}
		word.WriteString(g.Text)
		prev = g
	}
	flush()

	return tokens
}

func sameBaseline(a, b Glyph) bool {
	d := a.Y - b.Y
	return d <= baselineTolerance && d >= -baselineTolerance
}

func startsOrEndsWithSpace(s string) bool {
	return s != strings.TrimSpace(s)
}

// splitRun divides a multi-word run, spreading its width evenly over its
// characters.
func splitRun(g Glyph, size float64) []Glyph {
	runes := []rune(g.Text)
	if len(runes) == 0 {
		return nil
	}
	perRune := g.W / float64(len(runes))

	var out []Glyph
	start := -1
	for i := 0; i <= len(runes); i++ {
		if i < len(runes) && !unicode.IsSpace(runes[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, Glyph{
				Text:     string(runes[start:i]),
				X:        g.X + float64(start)*perRune,
				Y:        g.Y,
				W:        float64(i-start) * perRune,
				FontSize: size,
			})
			start = -1
		}
	}
	return out
}

func flipped(g Glyph, height float64) sondage.Token {
	return sondage.Token{
		Text:   g.Text,
		X0:     g.X,
		X1:     g.X + g.W,
		Top:    height - (g.Y + g.FontSize),
		Bottom: height - g.Y,
	}
}
