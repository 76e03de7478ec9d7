package review

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
	"gopkg.in/yaml.v3"
)

// SessionVersion is the format version written to session files
const SessionVersion = 1

// Session is the persisted review state of one extraction run
type Session struct {
	Version   int             `yaml:"version"`
	RunID     string          `yaml:"run_id"`
	Source    string          `yaml:"source,omitempty"`
	SavedAt   time.Time       `yaml:"saved_at"`
	Keywords  []string        `yaml:"keywords"`
	Validated []string        `yaml:"validated"`
	Sondages  []SondageRecord `yaml:"sondages"`

	// Edits queued by hand in the file, applied in order on restore
	Edits []Edit `yaml:"edits,omitempty"`
}

// SondageRecord is one borehole in a session file
type SondageRecord struct {
	Name    string             `yaml:"name"`
	Pages   []int              `yaml:"pages,flow"`
	Depth   sondage.DepthRange `yaml:"depth,flow"`
	Columns []ColumnRecord     `yaml:"columns"`
}

// ColumnRecord is one column of a borehole. Gaps are written as null.
type ColumnRecord struct {
	Name    string     `yaml:"name"`
	Values  []*float64 `yaml:"values,flow"`
	Flags   []int      `yaml:"flags,omitempty,flow"`
	Touched []int      `yaml:"touched,omitempty,flow"`
}

// FromStore snapshots store into a session
func FromStore(store *sondage.Store, runID, source string) *Session {
	s := &Session{
		Version:   SessionVersion,
		RunID:     runID,
		Source:    source,
		SavedAt:   time.Now().UTC().Truncate(time.Second),
		Keywords:  store.Keywords(),
		Validated: store.ValidatedNames(),
	}

	for _, name := range store.Names() {
		sd, _ := store.Get(name)
		rec := SondageRecord{
			Name:  sd.Name,
			Pages: append([]int(nil), sd.Pages...),
			Depth: sd.Depth,
		}
		for _, colName := range store.Columns() {
			col := sd.Column(colName)
			if col == nil {
				continue
			}
			rec.Columns = append(rec.Columns, ColumnRecord{
				Name:    colName,
				Values:  col.Values.Clone(),
				Flags:   append([]int(nil), col.Flags...),
				Touched: append([]int(nil), col.Touched...),
			})
		}
		s.Sondages = append(s.Sondages, rec)
	}
	return s
}

// Restore rebuilds a store from the session and applies its queued edits.
// Edited sondages lose their validation, like edits made interactively.
func (s *Session) Restore(logger *slog.Logger) (*sondage.Store, error) {
	if s.Version != SessionVersion {
		return nil, fmt.Errorf("unsupported session version %d", s.Version)
	}
	if len(s.Keywords) == 0 {
		return nil, errors.New("session has no keywords")
	}

	store := sondage.NewStore(s.Keywords, logger)
	known := make(map[string]bool, len(s.Keywords)+1)
	known[sondage.ColumnDepth] = true
	for _, kw := range s.Keywords {
		known[kw] = true
	}

	records := make(map[string]*sondage.Sondage, len(s.Sondages))
	for _, rec := range s.Sondages {
		if rec.Name == "" {
			return nil, errors.New("session contains a sondage without name")
		}
		if _, dup := records[rec.Name]; dup {
			return nil, fmt.Errorf("duplicate sondage %s in session", rec.Name)
		}
		sd := &sondage.Sondage{
			Name:    rec.Name,
			Pages:   rec.Pages,
			Depth:   rec.Depth,
			Columns: make(map[string]*sondage.ReviewColumn, len(rec.Columns)),
		}
		for _, c := range rec.Columns {
			if !known[c.Name] {
				return nil, fmt.Errorf("sondage %s: unknown column %q", rec.Name, c.Name)
			}
			col := sondage.NewReviewColumn(sondage.Sequence(c.Values), c.Flags)
			col.Touched = c.Touched
			sd.Columns[c.Name] = col
		}
		for name := range known {
			if sd.Columns[name] == nil {
				sd.Columns[name] = sondage.NewReviewColumn(nil, nil)
			}
		}
		records[rec.Name] = sd
		store.Restore(sd, false)
	}

	for _, name := range s.Validated {
		if _, ok := records[name]; !ok {
			return nil, fmt.Errorf("validated sondage %s is not in the session", name)
		}
		store.Restore(records[name], true)
	}

	if err := ApplyAll(store, s.Edits); err != nil {
		return nil, err
	}
	return store, nil
}

// Encode writes the session as YAML
func (s *Session) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML session
func Decode(r io.Reader) (*Session, error) {
	var s Session
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Save writes the session to path
func Save(path string, s *Session) error {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Load reads the session at path
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
