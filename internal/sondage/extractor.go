package sondage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// PageSource supplies the positioned tokens of a document, page by page.
// Pages are numbered from 1.
type PageSource interface {
	PageCount() int
	Tokens(page int) ([]Token, error)
}

// Pages is an in-memory PageSource; Pages[0] is page 1
type Pages [][]Token

// PageCount implements PageSource
func (p Pages) PageCount() int {
	return len(p)
}

// Tokens implements PageSource
func (p Pages) Tokens(page int) ([]Token, error) {
	if page < 1 || page > len(p) {
		return nil, fmt.Errorf("invalid page number %d (document has %d pages)", page, len(p))
	}
	return p[page-1], nil
}

// Settings configures an Extractor
type Settings struct {
	// Keywords in column order. The first two form the merge pair
	// (lower reading first, Pf* then Pl*).
	Keywords       []Keyword
	MergeThreshold float64
	NamePattern    *regexp.Regexp
}

// DefaultSettings returns the Pf*/Pl*/Module configuration of the reports
func DefaultSettings() Settings {
	return Settings{
		Keywords:       DefaultKeywords(),
		MergeThreshold: DefaultMergeThreshold,
		NamePattern:    regexp.MustCompile(DefaultNamePattern),
	}
}

// Labels returns the keyword labels in order
func (s Settings) Labels() []string {
	out := make([]string, len(s.Keywords))
	for i, kw := range s.Keywords {
		out[i] = kw.Label
	}
	return out
}

// Extractor runs the keyword anchored extraction over the pages of a document
type Extractor struct {
	settings Settings
	logger   *slog.Logger
}

// NewExtractor validates the settings and creates an extractor
func NewExtractor(settings Settings, logger *slog.Logger) (*Extractor, error) {
	if len(settings.Keywords) == 0 {
		return nil, errors.New("at least one keyword is required")
	}
	seen := make(map[string]bool, len(settings.Keywords))
	for _, kw := range settings.Keywords {
		if kw.Label == "" {
			return nil, errors.New("keyword label cannot be empty")
		}
		if seen[kw.Label] {
			return nil, fmt.Errorf("duplicate keyword: %s", kw.Label)
		}
		seen[kw.Label] = true
	}
	if settings.MergeThreshold < 0 {
		return nil, errors.New("merge threshold must not be negative")
	}
	if settings.NamePattern == nil {
		settings.NamePattern = regexp.MustCompile(DefaultNamePattern)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{settings: settings, logger: logger}, nil
}

// Settings returns the extractor configuration
func (e *Extractor) Settings() Settings {
	return e.settings
}

// PageReport describes what happened on one page
type PageReport struct {
	Page     int               `json:"page"`
	Sondage  string            `json:"sondage"`
	Anchors  map[string]Anchor `json:"anchors"`
	Counts   map[string]int    `json:"counts"`
	Merged   bool              `json:"merged"`
	Skipped  bool              `json:"skipped"`
	Warnings []string          `json:"warnings,omitempty"`
	Problems []*Error          `json:"problems,omitempty"`
	Result   PageResult        `json:"-"`
}

func (r *PageReport) problem(e *Error) {
	r.Problems = append(r.Problems, e.WithPage(r.Page).WithSondage(r.Sondage))
}

// FallbackName is the borehole name of a page without a name token
func FallbackName(page int) string {
	return fmt.Sprintf("Page %d", page)
}

// ProcessPage extracts the keyword sequences of one page. It never fails:
// every problem is recorded in the report and a page that cannot be trusted
// is marked Skipped.
func (e *Extractor) ProcessPage(page int, tokens []Token) PageReport {
	idx := NewTokenIndex(tokens)

	name, ok := idx.FindName(e.settings.NamePattern)
	if !ok {
		name = FallbackName(page)
	}

	report := PageReport{
		Page:    page,
		Sondage: name,
		Anchors: idx.Positions(e.settings.Keywords),
		Counts:  make(map[string]int, len(e.settings.Keywords)),
		Result: PageResult{
			Page:      page,
			Sondage:   name,
			Sequences: make(map[string]Sequence, len(e.settings.Keywords)),
			Flags:     make(map[string][]int, len(e.settings.Keywords)),
		},
	}

	streams := make(map[string][]PositionedValue, len(e.settings.Keywords))
	for _, kw := range e.settings.Keywords {
		anchor, found := report.Anchors[kw.Label]
		if !found {
			report.problem(NewError(ErrorTypeMissingKeyword, "keyword not found on page").WithKeyword(kw.Label))
			streams[kw.Label] = []PositionedValue{}
			continue
		}
		e.logger.Debug("keyword position", "page", page, "keyword", kw.Label, "x", anchor.X, "y", anchor.Y)
		streams[kw.Label] = CollectAt(idx, anchor, kw.Tolerance)
		report.Counts[kw.Label] = len(streams[kw.Label])
	}

	if len(e.settings.Keywords) >= 2 {
		first, second := e.settings.Keywords[0].Label, e.settings.Keywords[1].Label
		merged, err := DetectMerge(idx, first, second, e.settings.MergeThreshold)
		if err != nil {
			e.logger.Warn("column merge undetermined, treating as separate columns",
				"page", page, "sondage", name, "error", err)
		}
		report.Merged = merged

		if merged {
			if err := CheckMergedStreams(streams[first], streams[second]); err != nil {
				var serr *Error
				if errors.As(err, &serr) {
					report.problem(serr)
				}
				report.Skipped = true
				e.logger.Warn("inconsistent merged columns, skipping page",
					"page", page, "sondage", name, "error", err)
				return report
			}

			a, b, warnings := Split(streams[first])
			for _, w := range warnings {
				report.problem(NewError(ErrorTypeOddLengthStream, w).WithKeyword(first + "," + second))
				report.Warnings = append(report.Warnings, w)
			}
			streams[first], streams[second] = a, b
			e.logger.Debug("split merged column", "page", page, "sondage", name,
				first, len(a), second, len(b))
		}
	}

	for _, kw := range e.settings.Keywords {
		det := DetectAnomalies(kw.Label, streams[kw.Label])
		report.Result.Sequences[kw.Label] = det.Values
		if len(det.Flagged) > 0 {
			report.Result.Flags[kw.Label] = det.Flagged
		}
		report.Warnings = append(report.Warnings, det.Warnings...)
	}

	for _, w := range report.Warnings {
		e.logger.Info("anomaly", "page", page, "sondage", name, "detail", w)
	}
	return report
}

// Report summarises a run over a whole document
type Report struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	Duration   string       `json:"duration"`
	PageCount  int          `json:"page_count"`
	Pages      []PageReport `json:"pages"`
	Sondages   []string     `json:"sondages"`
	Skipped    []int        `json:"skipped,omitempty"`
	Incomplete []string     `json:"incomplete,omitempty"`
}

// Warnings returns every warning of the run, prefixed with its page
func (r *Report) Warnings() []string {
	var out []string
	for _, p := range r.Pages {
		for _, w := range p.Warnings {
			out = append(out, fmt.Sprintf("page %d (%s): %s", p.Page, p.Sondage, w))
		}
	}
	return out
}

// Run processes every page of src in document order and merges the results
// into store. The depth range of each new borehole is requested from depth
// before the next page is read. Problems local to a page are reported and
// the run continues; an unreadable page or a failed depth request aborts it.
func (e *Extractor) Run(ctx context.Context, src PageSource, store *Store, depth DepthSource) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		PageCount: src.PageCount(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt).String()
	}()

	e.logger.Info("extraction started", "run_id", report.RunID, "pages", report.PageCount)

	for page := 1; page <= src.PageCount(); page++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		tokens, err := src.Tokens(page)
		if err != nil {
			serr := NewError(ErrorTypeMalformedDocument, "cannot read page tokens").WithPage(page)
			serr.Err = err
			return report, serr
		}

		pr := e.ProcessPage(page, tokens)
		report.Pages = append(report.Pages, pr)
		if pr.Skipped {
			report.Skipped = append(report.Skipped, page)
			continue
		}

		if err := store.Merge(ctx, pr.Sondage, pr.Result, depth); err != nil {
			return report, fmt.Errorf("page %d: %w", page, err)
		}
	}

	report.Sondages = store.Names()
	for _, name := range report.Sondages {
		if err := store.CheckLengths(name); err != nil {
			report.Incomplete = append(report.Incomplete, name)
			e.logger.Warn("sondage needs review before validation", "sondage", name, "error", err)
		}
	}

	e.logger.Info("extraction finished", "run_id", report.RunID,
		"sondages", len(report.Sondages), "skipped_pages", len(report.Skipped))
	return report, nil
}
