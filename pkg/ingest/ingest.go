// Package ingest reads tabular Account exports (CSV, XLSX, legacy XLS) into
// the canonical Record shape. It sits behind the already-resolved schema
// boundary described by SPEC_FULL.md §6: the caller supplies a ColumnMap and
// a RelationshipRankTable (both data, not UI logic), and ingest never
// guesses which source column means what.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/dedupe/pkg/hashutil"
	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// ColumnMap names the source columns that correspond to each canonical
// Record field (SPEC_FULL.md §6).
type ColumnMap struct {
	Name         string
	AccountID    string
	CreatedDate  string
	Relationship string
}

// RelationshipRankTable maps a relationship label to its survivorship rank
// (§4.10). A label absent from the table falls back to DefaultRank.
type RelationshipRankTable struct {
	Ranks       map[string]int
	DefaultRank int
}

// Rank returns the configured rank for a relationship label, or
// DefaultRank (or models.RelationshipRankUnknown if DefaultRank is unset)
// when the label is not present in the table.
func (t RelationshipRankTable) Rank(relationship string) int {
	if t.Ranks != nil {
		if r, ok := t.Ranks[relationship]; ok {
			return r
		}
	}
	if t.DefaultRank != 0 {
		return t.DefaultRank
	}
	return models.RelationshipRankUnknown
}

// SchemaError reports a missing or malformed source column.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("ingest: schema error on column %q: %s", e.Column, e.Reason)
}

// IngestError wraps a row-level failure with enough context for audit
// artifacts without aborting the whole file (callers decide whether to
// collect and report, or to fail fast).
type IngestError struct {
	Row    int
	Source error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest: row %d: %v", e.Row, e.Source)
}

func (e *IngestError) Unwrap() error { return e.Source }

// Result is the outcome of reading one input file: the successfully parsed
// records plus any row-level errors encountered along the way (bad dates,
// unparseable IDs) that did not abort ingestion.
type Result struct {
	Records []models.Record
	Errors  []*IngestError
}

// Read dispatches to the appropriate format reader based on the file
// extension of path (.csv, .xlsx, .xls).
func Read(ctx context.Context, path string, cm ColumnMap, ranks RelationshipRankTable) (*Result, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(ctx, path, cm, ranks)
	case ".xlsx":
		return ReadXLSX(ctx, path, cm, ranks)
	case ".xls":
		return ReadXLS(ctx, path, cm, ranks)
	default:
		return nil, fmt.Errorf("ingest: unsupported file extension %q", ext)
	}
}

// buildRecord assembles one canonical Record from a row's raw field values,
// canonicalizing the Salesforce ID and coercing the created-date string
// (which may be an Excel serial number rendered as text by some exporters).
func buildRecord(row int, rawID, name, rawDate, relationship string, ranks RelationshipRankTable) (models.Record, *IngestError) {
	rec := models.Record{
		AccountName:  strings.TrimSpace(name),
		Relationship: strings.TrimSpace(relationship),
	}
	rec.RelationshipRk = ranks.Rank(rec.Relationship)

	idSrc := strings.TrimSpace(rawID)
	rec.AccountIDSrc = idSrc
	if idSrc == "" {
		rec.AccountID = uuid.NewString()
	} else {
		canon, err := hashutil.CanonicalizeSFID(idSrc)
		if err != nil {
			return rec, &IngestError{Row: row, Source: err}
		}
		rec.AccountID = canon
	}

	created, err := parseCreatedDate(rawDate)
	if err != nil {
		return rec, &IngestError{Row: row, Source: fmt.Errorf("created_date: %w", err)}
	}
	rec.CreatedDate = created
	return rec, nil
}

// parseCreatedDate accepts RFC3339, common date-only layouts, and bare
// Excel serial day counts (§4.5 "Excel-serial dates are coerced to ISO
// timestamps"), since CSV exports of spreadsheet data sometimes carry the
// serial number as plain text even outside a real .xls/.xlsx file.
func parseCreatedDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "01/02/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return excelSerialToTime(serial), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}

// excelSerialToTime converts an Excel/Lotus 1900-epoch serial day count to
// a UTC time, replicating excelize.ExcelDateToTime's epoch handling for
// plain-text serials encountered outside spreadsheet cells.
func excelSerialToTime(serial float64) time.Time {
	const excelEpochOffset = 25569 // days between 1899-12-30 and 1970-01-01
	days := serial - excelEpochOffset
	seconds := days * 86400
	return time.Unix(int64(seconds), 0).UTC()
}
