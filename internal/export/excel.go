// Package export writes validated sondages to an Excel workbook.
package export

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the single worksheet of the workbook
	SheetName = "Sondages"

	// blockStride is the column distance between two sondage blocks
	blockStride = 4

	nameRow   = 1
	headerRow = 2
	firstRow  = 3
)

// ErrNothingToExport is returned when no sondage has been validated
var ErrNothingToExport = errors.New("no validated sondage to export")

// Column maps a sondage column onto a workbook header
type Column struct {
	Source string
	Header string
}

// DefaultColumns is the layout of the survey workbook: depth, pressuremeter
// modulus and limit pressure.
var DefaultColumns = []Column{
	{Source: sondage.ColumnDepth, Header: "Profondeur"},
	{Source: sondage.KeywordModule, Header: "EM"},
	{Source: sondage.KeywordPl, Header: "PL"},
}

// Writer lays sondages out side by side, one block per sondage
type Writer struct {
	columns []Column
	logger  *slog.Logger
}

// NewWriter creates a writer; nil columns selects DefaultColumns
func NewWriter(columns []Column, logger *slog.Logger) *Writer {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	if len(columns) >= blockStride {
		// blocks would overlap; keep the first stride-1 columns
		columns = columns[:blockStride-1]
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{columns: columns, logger: logger}
}

// Build returns the workbook for the given sondages, in order. The caller
// closes the file.
func (w *Writer) Build(sondages []*sondage.Sondage) (*excelize.File, error) {
	if len(sondages) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	italic, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for i, sd := range sondages {
		col := 1 + i*blockStride
		if err := w.writeBlock(f, sd, col, bold, italic); err != nil {
			f.Close()
			return nil, fmt.Errorf("sondage %s: %w", sd.Name, err)
		}
	}
	return f, nil
}

func (w *Writer) writeBlock(f *excelize.File, sd *sondage.Sondage, col, bold, italic int) error {
	if err := setCell(f, col, nameRow, sd.Name, bold); err != nil {
		return err
	}

	for offset, c := range w.columns {
		if err := setCell(f, col+offset, headerRow, c.Header, italic); err != nil {
			return err
		}

		values := sd.Column(c.Source)
		if values == nil {
			w.logger.Warn("column missing from sondage, left empty", "sondage", sd.Name, "column", c.Source)
			continue
		}
		for i, v := range values.Values {
			if v == nil {
				continue
			}
			if err := setCell(f, col+offset, firstRow+i, *v, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return err
	}
	if style != 0 {
		return f.SetCellStyle(SheetName, cell, cell, style)
	}
	return nil
}

// WriteFile builds the workbook and saves it to path
func (w *Writer) WriteFile(path string, sondages []*sondage.Sondage) error {
	f, err := w.Build(sondages)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	w.logger.Info("workbook written", "path", path, "sondages", len(sondages))
	return nil
}

// Store writes the validated sondages of store, in validation order
func (w *Writer) Store(path string, store *sondage.Store) error {
	return w.WriteFile(path, store.Validated())
}
