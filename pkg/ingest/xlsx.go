package ingest

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads an Account export from the first sheet of an .xlsx
// workbook using excelize, the one spreadsheet library in scope (see
// DESIGN.md: no pack repo parses spreadsheets).
func ReadXLSX(ctx context.Context, path string, cm ColumnMap, ranks RelationshipRankTable) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("ingest: %s has no sheets", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("ingest: reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Result{}, nil
	}

	idx, err := columnIndex(rows[0], cm)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rowNum := i + 2

		// GetRows applies each cell's number format, so a date-styled cell
		// already arrives as a formatted date string; parseCreatedDate's
		// serial-number fallback covers unstyled numeric date columns.
		rec, ingestErr := buildRecord(rowNum, field(row, idx.accountID), field(row, idx.name), field(row, idx.createdDate), field(row, idx.relationship), ranks)
		if ingestErr != nil {
			result.Errors = append(result.Errors, ingestErr)
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}
