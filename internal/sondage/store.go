package sondage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Sondage is the aggregated record of one borehole across its pages
type Sondage struct {
	Name    string                   `json:"name" yaml:"name"`
	Pages   []int                    `json:"pages" yaml:"pages"`
	Depth   DepthRange               `json:"depth" yaml:"depth"`
	Columns map[string]*ReviewColumn `json:"columns" yaml:"columns"`
}

// Column returns the named column, nil when absent
func (s *Sondage) Column(name string) *ReviewColumn {
	return s.Columns[name]
}

// Lengths returns the length of every column, depth included
func (s *Sondage) Lengths() map[string]int {
	out := make(map[string]int, len(s.Columns))
	for name, c := range s.Columns {
		out[name] = c.Len()
	}
	return out
}

// PageResult holds the per keyword sequences of one processed page
type PageResult struct {
	Page      int                 `json:"page"`
	Sondage   string              `json:"sondage"`
	Sequences map[string]Sequence `json:"sequences"`
	Flags     map[string][]int    `json:"flags,omitempty"`
}

// Store aggregates page results into boreholes, keyed by name, in order of
// first encounter. It is owned by the caller of the page loop and handed on
// to review and export; it is not safe for concurrent use.
type Store struct {
	keywords  []string
	order     []string
	sondages  map[string]*Sondage
	validated []string
	last      string
	logger    *slog.Logger
}

// NewStore creates an empty store for the given keyword labels
func NewStore(keywords []string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		keywords: append([]string(nil), keywords...),
		sondages: make(map[string]*Sondage),
		logger:   logger,
	}
}

// Keywords returns the keyword labels of the store
func (s *Store) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

// Columns returns the column names in export order: depth then keywords
func (s *Store) Columns() []string {
	return append([]string{ColumnDepth}, s.keywords...)
}

// Names returns the borehole names in order of first encounter
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Get returns a borehole by name
func (s *Store) Get(name string) (*Sondage, bool) {
	sd, ok := s.sondages[name]
	return sd, ok
}

// Len returns the number of boreholes
func (s *Store) Len() int {
	return len(s.order)
}

// Merge adds a page result to the borehole called name. On the first page of
// a name the depth ladder is requested from src, exactly once. Later pages
// append to every column and shift their flags by the column's prior length.
func (s *Store) Merge(ctx context.Context, name string, page PageResult, src DepthSource) error {
	sd, exists := s.sondages[name]
	if !exists {
		if src == nil {
			return fmt.Errorf("no depth source for new sondage %s", name)
		}
		r, ladder, err := RequestLadder(ctx, src, name, func(err error) {
			s.logger.Warn("invalid depth range, asking again", "sondage", name, "error", err)
		})
		if err != nil {
			return err
		}

		sd = &Sondage{
			Name:    name,
			Depth:   r,
			Columns: make(map[string]*ReviewColumn, len(s.keywords)+1),
		}
		sd.Columns[ColumnDepth] = NewReviewColumn(SequenceOf(ladder...), nil)
		for _, kw := range s.keywords {
			sd.Columns[kw] = NewReviewColumn(page.Sequences[kw].Clone(), page.Flags[kw])
		}
		s.sondages[name] = sd
		s.order = append(s.order, name)
		s.logger.Debug("new sondage", "sondage", name, "page", page.Page, "depths", len(ladder))
	} else {
		if s.last != name {
			s.logger.Warn("sondage continues after another one, appending anyway",
				"sondage", name, "previous", s.last, "page", page.Page)
		}
		for _, kw := range s.keywords {
			col := sd.Columns[kw]
			if col == nil {
				col = NewReviewColumn(nil, nil)
				sd.Columns[kw] = col
			}
			col.appendPage(page.Sequences[kw].Clone(), page.Flags[kw])
		}
		s.logger.Debug("appended page to sondage", "sondage", name, "page", page.Page)
	}

	if page.Page > 0 {
		sd.Pages = append(sd.Pages, page.Page)
	}
	s.last = name
	return nil
}

// Edit returns the named column of a borehole for manual review
func (s *Store) Edit(name, column string) (*ReviewColumn, error) {
	sd, ok := s.sondages[name]
	if !ok {
		return nil, fmt.Errorf("unknown sondage: %s", name)
	}
	col := sd.Columns[column]
	if col == nil {
		return nil, fmt.Errorf("sondage %s has no column %q", name, column)
	}
	return col, nil
}

// CheckLengths verifies every column of the borehole has the same length.
// A mismatch is a blocking ErrLengthMismatch; nothing is padded or cut.
func (s *Store) CheckLengths(name string) error {
	sd, ok := s.sondages[name]
	if !ok {
		return fmt.Errorf("unknown sondage: %s", name)
	}

	lengths := sd.Lengths()
	names := make([]string, 0, len(lengths))
	for n := range lengths {
		names = append(names, n)
	}
	sort.Strings(names)

	same := true
	for _, n := range names {
		if lengths[n] != lengths[names[0]] {
			same = false
			break
		}
	}
	if same {
		return nil
	}

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%d", n, lengths[n])
	}
	return NewError(ErrorTypeLengthMismatch, strings.Join(parts, " ")).WithSondage(name)
}

// Validate marks a borehole as checked once its lengths agree. Validation
// order is the export order.
func (s *Store) Validate(name string) error {
	if err := s.CheckLengths(name); err != nil {
		return err
	}
	if !s.IsValidated(name) {
		s.validated = append(s.validated, name)
	}
	return nil
}

// Reopen withdraws a validation so the borehole can be edited again
func (s *Store) Reopen(name string) error {
	for i, n := range s.validated {
		if n == name {
			s.validated = append(s.validated[:i], s.validated[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("sondage %s is not validated", name)
}

// IsValidated reports whether name has been validated
func (s *Store) IsValidated(name string) bool {
	for _, n := range s.validated {
		if n == name {
			return true
		}
	}
	return false
}

// Validated returns the validated boreholes in validation order
func (s *Store) Validated() []*Sondage {
	out := make([]*Sondage, 0, len(s.validated))
	for _, n := range s.validated {
		out = append(out, s.sondages[n])
	}
	return out
}

// ValidatedNames returns the validated borehole names in validation order
func (s *Store) ValidatedNames() []string {
	return append([]string(nil), s.validated...)
}

// Pending returns the names not validated yet, in encounter order
func (s *Store) Pending() []string {
	var out []string
	for _, n := range s.order {
		if !s.IsValidated(n) {
			out = append(out, n)
		}
	}
	return out
}

// Restore inserts a previously saved borehole, used when loading a session
func (s *Store) Restore(sd *Sondage, validated bool) {
	if _, exists := s.sondages[sd.Name]; !exists {
		s.order = append(s.order, sd.Name)
	}
	s.sondages[sd.Name] = sd
	if validated && !s.IsValidated(sd.Name) {
		s.validated = append(s.validated, sd.Name)
	}
	s.last = sd.Name
}
