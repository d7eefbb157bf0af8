package ingest

import (
	"context"
	"fmt"

	"github.com/extrame/xls"
)

// ReadXLS reads an Account export from the first sheet of a legacy binary
// .xls workbook using extrame/xls, the legacy-format counterpart to
// excelize (see DESIGN.md).
func ReadXLS(ctx context.Context, path string, cm ColumnMap, ranks RelationshipRankTable) (*Result, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("ingest: %s has no sheets", path)
	}
	if sheet.MaxRow == 0 {
		return &Result{}, nil
	}

	header := readXLSRow(sheet.Row(0))
	idx, err := columnIndex(header, cm)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for r := 1; r <= int(sheet.MaxRow); r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := readXLSRow(sheet.Row(r))
		rowNum := r + 1

		rec, ingestErr := buildRecord(rowNum, field(row, idx.accountID), field(row, idx.name), field(row, idx.createdDate), field(row, idx.relationship), ranks)
		if ingestErr != nil {
			result.Errors = append(result.Errors, ingestErr)
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// readXLSRow materializes a *xls.Row into a plain string slice indexed like
// a CSV row, so it can share columnIndex/field/buildRecord with the other
// format readers.
func readXLSRow(row *xls.Row) []string {
	if row == nil {
		return nil
	}
	last := row.LastCol()
	out := make([]string, last+1)
	for i := 0; i <= last; i++ {
		out[i] = row.Col(i)
	}
	return out
}
