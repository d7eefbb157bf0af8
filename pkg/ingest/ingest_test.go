package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var testColumnMap = ColumnMap{
	Name:         "Account Name",
	AccountID:    "Account ID",
	CreatedDate:  "Created Date",
	Relationship: "Relationship",
}

func TestReadCSV_ParsesRowsAndCanonicalizesIDs(t *testing.T) {
	path := writeTempCSV(t, "Account Name,Account ID,Created Date,Relationship\nAcme Inc,00130000003CihZ,2020-01-01,Customer\n")

	result, err := ReadCSV(context.Background(), path, testColumnMap, RelationshipRankTable{})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	assert.Equal(t, "Acme Inc", rec.AccountName)
	assert.Equal(t, "00130000003CihZ", rec.AccountIDSrc)
	assert.Len(t, rec.AccountID, 18)
	assert.Equal(t, 2020, rec.CreatedDate.Year())
}

func TestReadCSV_MissingColumnIsSchemaError(t *testing.T) {
	path := writeTempCSV(t, "Name,ID\nAcme,1\n")
	_, err := ReadCSV(context.Background(), path, testColumnMap, RelationshipRankTable{})
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestReadCSV_BadIDProducesRowError(t *testing.T) {
	path := writeTempCSV(t, "Account Name,Account ID,Created Date,Relationship\nAcme Inc,bad-id,2020-01-01,Customer\n")
	result, err := ReadCSV(context.Background(), path, testColumnMap, RelationshipRankTable{})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
}

func TestReadCSV_MissingAccountIDGeneratesUUID(t *testing.T) {
	path := writeTempCSV(t, "Account Name,Account ID,Created Date,Relationship\nAcme Inc,,2020-01-01,Customer\n")
	result, err := ReadCSV(context.Background(), path, testColumnMap, RelationshipRankTable{})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.NotEmpty(t, result.Records[0].AccountID)
}

func TestRelationshipRankTable_Rank_FallsBackToDefault(t *testing.T) {
	table := RelationshipRankTable{Ranks: map[string]int{"Customer": 10}}
	assert.Equal(t, 10, table.Rank("Customer"))
	assert.Equal(t, models.RelationshipRankUnknown, table.Rank("Unknown Label"))
}

func TestLoadRelationshipRankTable_ParsesCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ranks.csv")
	require.NoError(t, os.WriteFile(path, []byte("relationship,rank\nCustomer,10\nPartner,20\n"), 0o644))

	table, err := LoadRelationshipRankTable(path)
	require.NoError(t, err)
	assert.Equal(t, 10, table.Rank("Customer"))
	assert.Equal(t, 20, table.Rank("Partner"))
	assert.Equal(t, models.RelationshipRankUnknown, table.Rank("Nonexistent"))
}

func TestParseCreatedDate_AcceptsExcelSerial(t *testing.T) {
	got, err := parseCreatedDate("44000")
	require.NoError(t, err)
	assert.Equal(t, 2020, got.Year())
}

func TestParseCreatedDate_EmptyIsZeroValue(t *testing.T) {
	got, err := parseCreatedDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
