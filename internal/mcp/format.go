package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/a3tai/mcp-sondage-reader/internal/pdf"
	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
)

// maxListedFiles limits the directory listing of the server info
const maxListedFiles = 10

func formatExtractResult(result *pdf.ExtractResult) string {
	report := result.Report
	text := fmt.Sprintf("📄 %s: %d page(s), run %s (%s)\n", result.Path, report.PageCount, report.RunID, report.Duration)
	text += fmt.Sprintf("🕳️  Sondages: %s\n\n", listOrNone(report.Sondages))

	text += "Pages:\n"
	for _, p := range report.Pages {
		text += fmt.Sprintf("  %d. %s", p.Page, p.Sondage)
		switch {
		case p.Skipped:
			text += " (skipped)"
		case p.Merged:
			text += " (merged Pf*/Pl* column)"
		}
		if len(p.Counts) > 0 {
			text += " " + formatCounts(p.Counts)
		}
		text += "\n"
		for _, problem := range p.Problems {
			text += fmt.Sprintf("     ⚠️  %s\n", problem.Error())
		}
	}

	if warnings := report.Warnings(); len(warnings) > 0 {
		text += fmt.Sprintf("\nWarnings (%d):\n", len(warnings))
		for _, w := range warnings {
			text += fmt.Sprintf("  • %s\n", w)
		}
	}

	if len(report.Skipped) > 0 {
		text += fmt.Sprintf("\nSkipped pages: %s\n", joinInts(report.Skipped))
	}
	if len(report.Incomplete) > 0 {
		text += fmt.Sprintf("\n❗ Column lengths disagree for: %s\n", strings.Join(report.Incomplete, ", "))
		text += "Review them with sondage_show and sondage_edit before validating.\n"
	}

	return text
}

// formatCounts lists the per keyword counts in keyword order
func formatCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, kw := range []string{sondage.KeywordPf, sondage.KeywordPl, sondage.KeywordModule} {
		if n, ok := counts[kw]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", kw, n))
		}
	}
	var extra []string
	for kw := range counts {
		if kw != sondage.KeywordPf && kw != sondage.KeywordPl && kw != sondage.KeywordModule {
			extra = append(extra, kw)
		}
	}
	sort.Strings(extra)
	for _, kw := range extra {
		parts = append(parts, fmt.Sprintf("%s=%d", kw, counts[kw]))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// formatSondage renders a borehole as one line per column, flagged
// indices marked with an asterisk
func formatSondage(sd *sondage.Sondage, columns []string, validated bool) string {
	status := "pending"
	if validated {
		status = "validated"
	}
	text := fmt.Sprintf("🕳️  %s (%s), pages %s, depth %g to %g step %g\n",
		sd.Name, status, joinInts(sd.Pages), sd.Depth.Start, sd.Depth.End, sd.Depth.Step)

	for _, name := range columns {
		col := sd.Column(name)
		if col == nil {
			continue
		}
		flagged := make(map[int]bool)
		for _, f := range col.VisibleFlags() {
			flagged[f] = true
		}
		cells := make([]string, len(col.Values))
		for i, v := range col.Values {
			cell := "_"
			if v != nil {
				cell = fmt.Sprintf("%g", *v)
			}
			if flagged[i] {
				cell += "*"
			}
			cells[i] = cell
		}
		text += fmt.Sprintf("  %-7s (%d): %s\n", name, col.Len(), strings.Join(cells, " "))
		if len(flagged) > 0 {
			text += fmt.Sprintf("          flagged: %s\n", joinInts(col.VisibleFlags()))
		}
	}

	return text
}

func formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	directory := result.DefaultDirectory
	if directory == "" {
		directory = "(unrestricted)"
	}
	text += fmt.Sprintf("📁 PDF Directory: %s\n", directory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔑 Keywords: %s (merge threshold %g, name pattern %s)\n\n",
		strings.Join(result.Keywords, ", "), result.MergeThreshold, result.NamePattern)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Reports (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		if result.Truncated {
			text += "   (scan truncated)\n"
		}
		text += "\n"
	} else {
		text += "📂 Reports: No PDF files found in the PDF directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		summary, _, _ := strings.Cut(tool.Description, "\n")
		text += fmt.Sprintf("• %s: %s\n", tool.Name, summary)
	}

	text += "\n" + result.UsageGuidance

	return text
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
