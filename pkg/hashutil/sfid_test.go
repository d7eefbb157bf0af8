package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSFID15To18_KnownVector(t *testing.T) {
	// Well-known Salesforce documentation example.
	got, err := SFID15To18("00130000003CihZ")
	require.NoError(t, err)
	assert.Equal(t, "00130000003CihZAAS", got)
}

func TestSFID15To18_CaseAffectsChecksum(t *testing.T) {
	upper, err := SFID15To18("001000000000AAA")
	require.NoError(t, err)
	lower, err := SFID15To18("001000000000aaa")
	require.NoError(t, err)
	assert.NotEqual(t, upper, lower, "case of the 15-char input must deterministically affect the checksum")
}

func TestCanonicalizeSFID_18CharPassesThrough(t *testing.T) {
	id18 := "00130000003CihZAAS"
	got, err := CanonicalizeSFID(id18)
	require.NoError(t, err)
	assert.Equal(t, id18, got)
}

func TestCanonicalizeSFID_Idempotent(t *testing.T) {
	first, err := CanonicalizeSFID("00130000003CihZ")
	require.NoError(t, err)
	second, err := CanonicalizeSFID(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCanonicalizeSFID_WrongLengthFails(t *testing.T) {
	_, err := CanonicalizeSFID("tooshort")
	require.Error(t, err)
	var idErr *IdFormatError
	assert.ErrorAs(t, err, &idErr)
}

func TestCanonicalizeSFID_NonAlphanumericFails(t *testing.T) {
	_, err := CanonicalizeSFID("001300000-3Cih!")
	require.Error(t, err)
}

func TestCanonicalizeSFIDBatch_CollectsSamples(t *testing.T) {
	ids := []string{"00130000003CihZ", "bad1", "bad-two-not-15-or-18-chars", "00130000003CihZAAS"}
	_, err := CanonicalizeSFIDBatch(ids, 5)
	require.Error(t, err)
	var idErr *IdFormatError
	require.ErrorAs(t, err, &idErr)
	assert.Len(t, idErr.Samples, 2)
}

func TestCanonicalizeSFIDBatch_CapsSamples(t *testing.T) {
	ids := []string{"bad1", "bad2", "bad3", "bad4"}
	_, err := CanonicalizeSFIDBatch(ids, 2)
	require.Error(t, err)
	var idErr *IdFormatError
	require.ErrorAs(t, err, &idErr)
	assert.Len(t, idErr.Samples, 2)
}
