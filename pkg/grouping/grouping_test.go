package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

func lookupFrom(entries map[string][2]string) NameLookup {
	return func(id string) (string, string, bool) {
		v, ok := entries[id]
		if !ok {
			return "", "", false
		}
		return v[0], v[1], true
	}
}

func baseOpts() Options {
	return Options{
		MaxGroupSize:      25,
		CanopyEnabled:     true,
		EdgeGatingEnabled: true,
		High:              92,
		Medium:            84,
		StopTokens:        map[string]bool{"the": true, "inc": true},
		ConfigHash:        "cfg1",
	}
}

func TestRun_HighConfidencePairsMergeIntoOneGroup(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 96, SuffixMatch: true},
		{IDA: "a2", IDB: "a3", Score: 95, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings", "INC"},
		"a2": {"acme holdings", "INC"},
		"a3": {"acme holdings", "INC"},
	})

	res := Run(pairs, lookup, baseOpts())
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"a1", "a2", "a3"}, res.Groups[0].Members)
	assert.Equal(t, 96.0, res.Groups[0].MaxScore)
	assert.Equal(t, 95.0, res.Groups[0].MinScore)
}

func TestRun_MediumWithSharedTokenAdmits(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 88, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings group", "INC"},
		"a2": {"acme global partners", "INC"},
	})

	res := Run(pairs, lookup, baseOpts())
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"a1", "a2"}, res.Groups[0].Members)
}

func TestRun_MediumWithoutSharedTokenRejects(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 88, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings group", "INC"},
		"a2": {"zeta manufacturing partners", "INC"},
	})

	res := Run(pairs, lookup, baseOpts())
	assert.Empty(t, res.Groups)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, "no_shared_token", res.Rejections[0].Reason)
}

func TestRun_SuffixMismatchForbidsAdmission(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 99, SuffixMatch: false},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings", "INC"},
		"a2": {"acme holdings", "LLC"},
	})

	res := Run(pairs, lookup, baseOpts())
	assert.Empty(t, res.Groups)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, "suffix_mismatch", res.Rejections[0].Reason)
}

func TestRun_BelowMediumRejects(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 50, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings", "INC"},
		"a2": {"zeta corp", "INC"},
	})

	res := Run(pairs, lookup, baseOpts())
	assert.Empty(t, res.Groups)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, "below_medium", res.Rejections[0].Reason)
}

func TestRun_CanopyBoundRejectsOversizedLowConfidenceMerge(t *testing.T) {
	opts := baseOpts()
	opts.MaxGroupSize = 2

	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 96, SuffixMatch: true},
		{IDA: "a2", IDB: "a3", Score: 88, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings group", "INC"},
		"a2": {"acme holdings group", "INC"},
		"a3": {"acme holdings partners", "INC"},
	})

	res := Run(pairs, lookup, opts)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"a1", "a2"}, res.Groups[0].Members)
	found := false
	for _, r := range res.Rejections {
		if r.Reason == "canopy_bound_exceeded" {
			found = true
		}
	}
	assert.True(t, found, "expected a canopy_bound_exceeded rejection")
}

func TestRun_CanopyBoundDoesNotBlockHighConfidenceMerge(t *testing.T) {
	opts := baseOpts()
	opts.MaxGroupSize = 2

	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 96, SuffixMatch: true},
		{IDA: "a2", IDB: "a3", Score: 97, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings group", "INC"},
		"a2": {"acme holdings group", "INC"},
		"a3": {"acme holdings group", "INC"},
	})

	res := Run(pairs, lookup, opts)
	require.Len(t, res.Groups, 1)
	assert.Len(t, res.Groups[0].Members, 3)
}

func TestRun_ExternalSuffixMismatchMarksGroupForAllMembers(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 96, SuffixMatch: true},
		{IDA: "a1", IDB: "a3", Score: 99, SuffixMatch: false},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings", "INC"},
		"a2": {"acme holdings", "INC"},
		"a3": {"acme holdings", "LLC"},
	})

	res := Run(pairs, lookup, baseOpts())
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"a1", "a2"}, res.Groups[0].Members)
	assert.True(t, res.Groups[0].HasSuffixMismatch, "a1's external suffix conflict with a3 must mark the whole group")

	found := false
	for _, r := range res.Rejections {
		if r.Reason == "suffix_mismatch" {
			found = true
		}
	}
	assert.True(t, found, "expected a suffix_mismatch rejection")
}

func TestRun_SingletonsProduceNoGroups(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 10, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings", "INC"},
		"a2": {"zeta corp", "INC"},
	})

	res := Run(pairs, lookup, baseOpts())
	assert.Empty(t, res.Groups)
}

func TestRun_GroupIDIsStableAcrossInputOrder(t *testing.T) {
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings", "INC"},
		"a2": {"acme holdings", "INC"},
		"a3": {"acme holdings", "INC"},
	})
	opts := baseOpts()

	forward := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 96, SuffixMatch: true},
		{IDA: "a2", IDB: "a3", Score: 95, SuffixMatch: true},
	}
	reversed := []models.CandidatePair{
		{IDA: "a2", IDB: "a3", Score: 95, SuffixMatch: true},
		{IDA: "a1", IDB: "a2", Score: 96, SuffixMatch: true},
	}

	r1 := Run(forward, lookup, opts)
	r2 := Run(reversed, lookup, opts)
	require.Len(t, r1.Groups, 1)
	require.Len(t, r2.Groups, 1)
	assert.Equal(t, r1.Groups[0].GroupID, r2.Groups[0].GroupID)
	assert.Equal(t, r1.Groups[0].Members, r2.Groups[0].Members)
}

func TestRun_ThreeWayMergeAbsorbsBothComponentAggregates(t *testing.T) {
	pairs := []models.CandidatePair{
		{IDA: "a1", IDB: "a2", Score: 93, SuffixMatch: true},
		{IDA: "a3", IDB: "a4", Score: 97, SuffixMatch: true},
		{IDA: "a2", IDB: "a3", Score: 94, SuffixMatch: true},
	}
	lookup := lookupFrom(map[string][2]string{
		"a1": {"acme holdings", "INC"},
		"a2": {"acme holdings", "INC"},
		"a3": {"acme holdings", "INC"},
		"a4": {"acme holdings", "INC"},
	})

	res := Run(pairs, lookup, baseOpts())
	require.Len(t, res.Groups, 1)
	g := res.Groups[0]
	assert.Equal(t, []string{"a1", "a2", "a3", "a4"}, g.Members)
	assert.Equal(t, 97.0, g.MaxScore)
	assert.Equal(t, 93.0, g.MinScore)
}
