package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/a3tai/mcp-sondage-reader/internal/config"
	"github.com/a3tai/mcp-sondage-reader/internal/export"
	"github.com/a3tai/mcp-sondage-reader/internal/pdf"
	"github.com/a3tai/mcp-sondage-reader/internal/review"
	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
)

// errNeedsReview is returned when some boreholes do not validate; the
// session file holds them for editing.
var errNeedsReview = errors.New("sondages need review")

// runBatch processes one report, or one edited session, from the command
// line. Paths are taken as given: the operator chose them.
func runBatch(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	var (
		store *sondage.Store
		runID string
		src   string
	)

	if cfg.FromSession {
		session, err := review.Load(cfg.Session)
		if err != nil {
			return err
		}
		store, err = session.Restore(logger)
		if err != nil {
			return fmt.Errorf("failed to restore session %s: %w", cfg.Session, err)
		}
		runID, src = session.RunID, session.Source
		fmt.Fprintf(stdout, "Loaded session %s: %d sondage(s)\n", cfg.Session, store.Len())
	} else {
		settings, err := cfg.Settings()
		if err != nil {
			return err
		}
		pdfService, err := pdf.NewService(cfg.MaxFileSize, "", settings, logger)
		if err != nil {
			return fmt.Errorf("failed to create PDF service: %w", err)
		}

		store = pdfService.NewStore()
		result, err := pdfService.ExtractSondages(ctx, pdf.ExtractRequest{Path: cfg.Input}, store, depthSource(cfg, stdin, stdout))
		if err != nil {
			return err
		}
		printReport(stdout, result)
		runID, src = result.Report.RunID, result.Path
	}

	failures := review.ValidateAll(store)

	if err := review.Save(cfg.Session, review.FromStore(store, runID, src)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Session saved to %s\n", cfg.Session)

	if len(failures) > 0 {
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(stdout, "\n%d sondage(s) do not validate:\n", len(names))
		for _, name := range names {
			fmt.Fprintf(stdout, "  %s: %v\n", name, failures[name])
		}
		fmt.Fprintf(stdout, "Edit %s and run again with --from-session.\n", cfg.Session)
		return fmt.Errorf("%w: %s", errNeedsReview, strings.Join(names, ", "))
	}

	writer := export.NewWriter(export.DefaultColumns, logger)
	if err := writer.Store(cfg.Output, store); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Exported %d sondage(s) to %s: %s\n",
		len(store.ValidatedNames()), cfg.Output, strings.Join(store.ValidatedNames(), ", "))
	return nil
}

// depthSource uses the configured range when there is one and asks on
// stdin otherwise
func depthSource(cfg *config.Config, stdin io.Reader, stdout io.Writer) sondage.DepthSource {
	if cfg.Depth != nil {
		return sondage.FixedDepth(*cfg.Depth)
	}
	return &prompter{in: bufio.NewScanner(stdin), out: stdout}
}

// prompter asks for the depth range of each new borehole, one
// "start end step" line per question
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// DepthRange implements sondage.DepthSource. A line that does not parse
// yields an invalid range so the question is asked again.
func (p *prompter) DepthRange(ctx context.Context, name string) (sondage.DepthRange, error) {
	if err := ctx.Err(); err != nil {
		return sondage.DepthRange{}, err
	}

	fmt.Fprintf(p.out, "Depth range for %s (start end step): ", name)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return sondage.DepthRange{}, fmt.Errorf("failed to read depth range: %w", err)
		}
		return sondage.DepthRange{}, io.ErrUnexpectedEOF
	}

	r, err := parseDepthLine(p.in.Text())
	if err != nil {
		fmt.Fprintf(p.out, "  %v\n", err)
		return sondage.DepthRange{}, nil
	}
	return r, nil
}

// parseDepthLine reads "start end step"; commas and semicolons may separate
// the fields and decimals may use a comma when fields are space separated
func parseDepthLine(line string) (sondage.DepthRange, error) {
	fields := strings.Fields(strings.ReplaceAll(line, ";", " "))
	if len(fields) != 3 {
		fields = strings.Fields(strings.NewReplacer(",", " ", ";", " ").Replace(line))
	}
	if len(fields) != 3 {
		return sondage.DepthRange{}, fmt.Errorf("expected three numbers, got %q", strings.TrimSpace(line))
	}

	var values [3]float64
	for i, f := range fields {
		v, ok := sondage.ParseNumber(strings.Trim(f, ","))
		if !ok {
			return sondage.DepthRange{}, fmt.Errorf("%q is not a number", f)
		}
		values[i] = v
	}
	return sondage.DepthRange{Start: values[0], End: values[1], Step: values[2]}, nil
}

func printReport(w io.Writer, result *pdf.ExtractResult) {
	report := result.Report
	fmt.Fprintf(w, "%s: %d page(s), run %s\n", result.Path, report.PageCount, report.RunID)
	for _, p := range report.Pages {
		status := ""
		switch {
		case p.Skipped:
			status = " skipped"
		case p.Merged:
			status = " merged"
		}
		fmt.Fprintf(w, "  page %d: %s%s %v\n", p.Page, p.Sondage, status, p.Counts)
		for _, warning := range p.Warnings {
			fmt.Fprintf(w, "    warning: %s\n", warning)
		}
		for _, problem := range p.Problems {
			fmt.Fprintf(w, "    problem: %v\n", problem)
		}
	}
}
