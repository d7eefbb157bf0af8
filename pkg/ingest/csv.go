package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadCSV reads an Account export in CSV form using the standard library
// csv reader — the idiomatic ecosystem choice for this format (see
// DESIGN.md: no pack repo reads CSV, and no third-party CSV library
// improves on encoding/csv for a well-formed, comma-delimited export).
func ReadCSV(ctx context.Context, path string, cm ColumnMap, ranks RelationshipRankTable) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged trailing columns; schema is column-name driven, not position driven

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: reading header: %w", err)
	}
	idx, err := columnIndex(header, cm)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	rowNum := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: reading row %d: %w", rowNum, err)
		}
		rowNum++

		rec, ingestErr := buildRecord(rowNum, field(row, idx.accountID), field(row, idx.name), field(row, idx.createdDate), field(row, idx.relationship), ranks)
		if ingestErr != nil {
			result.Errors = append(result.Errors, ingestErr)
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

type columnIndices struct {
	name, accountID, createdDate, relationship int
}

// columnIndex resolves each ColumnMap field name to its position in the
// header row, failing with SchemaError when a mapped column is absent.
func columnIndex(header []string, cm ColumnMap) (columnIndices, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	find := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return -1, &SchemaError{Column: name, Reason: "column not found in input header"}
		}
		return i, nil
	}

	var idx columnIndices
	var err error
	if idx.name, err = find(cm.Name); err != nil {
		return idx, err
	}
	if idx.accountID, err = find(cm.AccountID); err != nil {
		return idx, err
	}
	if idx.createdDate, err = find(cm.CreatedDate); err != nil {
		return idx, err
	}
	if idx.relationship, err = find(cm.Relationship); err != nil {
		return idx, err
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
