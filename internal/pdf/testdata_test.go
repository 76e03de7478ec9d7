package pdf

import (
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-sondage-reader/internal/pdf/pdftest"
	"github.com/stretchr/testify/require"
)

var reportPage = pdftest.ReportPage

func writeReport(t *testing.T, dir string, pages ...pdftest.Page) string {
	t.Helper()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, pdftest.WriteFile(path, pages...))
	return path
}
