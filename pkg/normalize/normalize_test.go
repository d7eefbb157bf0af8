package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

func TestNormalize_LowercasesAndCollapsesWhitespace(t *testing.T) {
	n := Normalize("a1", "  Acme   Corp  ")
	assert.Equal(t, "acme corp", n.NameBase)
}

func TestNormalize_SymbolMap(t *testing.T) {
	n := Normalize("a1", "Smith & Sons")
	assert.Contains(t, n.NameBase, "and")
}

func TestNormalize_ExtractsTrailingSuffix(t *testing.T) {
	n := Normalize("a1", "Acme Corp Inc")
	assert.Equal(t, models.SuffixINC, n.SuffixClass)
	assert.Equal(t, "acme corp", n.NameCore)
}

func TestNormalize_NoSuffixLeavesSuffixNone(t *testing.T) {
	n := Normalize("a1", "Acme Holdings")
	assert.Equal(t, models.SuffixNONE, n.SuffixClass)
	assert.Equal(t, "acme holdings", n.NameCore)
}

func TestNormalize_UnifiesNumericStyle(t *testing.T) {
	n1 := Normalize("a1", "Unit 20-20 LLC")
	n2 := Normalize("a2", "Unit 20/20 LLC")
	n3 := Normalize("a3", "Unit 20 20 LLC")
	assert.Equal(t, n1.NameCore, n2.NameCore)
	assert.Equal(t, n2.NameCore, n3.NameCore)
}

func TestNormalize_IsDeterministicAndIdempotent(t *testing.T) {
	first := Normalize("a1", "Acme Corp, Inc.")
	second := Normalize("a1", "Acme Corp, Inc.")
	assert.Equal(t, first, second)
}

func TestNormalize_SemicolonAliases(t *testing.T) {
	n := Normalize("a1", "Acme Inc; Acme Holdings")
	assert.Contains(t, n.AliasCandidates, "Acme Holdings")
	assert.Contains(t, n.AliasSources, models.AliasSourceSemicolon)
	assert.True(t, n.HasMultipleNames)
}

func TestNormalize_NumberedMarkerAlias(t *testing.T) {
	n := Normalize("a1", "Acme Holdings (2)")
	assert.Contains(t, n.AliasCandidates, "(2)")
	assert.Contains(t, n.AliasSources, models.AliasSourceNumbered)
}

func TestNormalize_ParentheticalWithSuffixIsAlias(t *testing.T) {
	n := Normalize("a1", "Acme Holdings (Acme Corp LLC)")
	assert.Contains(t, n.AliasCandidates, "Acme Corp LLC")
}

func TestNormalize_ParentheticalWithTwoCapitalizedWordsIsAlias(t *testing.T) {
	n := Normalize("a1", "Acme Holdings (Beta Industries)")
	assert.Contains(t, n.AliasCandidates, "Beta Industries")
}

func TestNormalize_BlacklistedParentheticalIsNotAlias(t *testing.T) {
	n := Normalize("a1", "Acme Holdings (not sure)")
	assert.NotContains(t, n.AliasCandidates, "not sure")
}

func TestNormalize_NumbersOnlyParentheticalIsNotAlias(t *testing.T) {
	n := Normalize("a1", "Acme Holdings (12345)")
	assert.NotContains(t, n.AliasCandidates, "12345")
}

func TestNormalize_SingleCapitalizedWordParentheticalIsNotAlias(t *testing.T) {
	n := Normalize("a1", "Acme Holdings (Subsidiary)")
	assert.NotContains(t, n.AliasCandidates, "Subsidiary")
}

func TestNormalize_HasParenthesesFlag(t *testing.T) {
	n := Normalize("a1", "Acme (Holdings)")
	assert.True(t, n.HasParentheses)
}

func TestNumStyleSignature_ExtractsDigitGroups(t *testing.T) {
	assert.Equal(t, "20 20", NumStyleSignature("unit 20 20 llc"))
	assert.Equal(t, "", NumStyleSignature("acme holdings"))
}
