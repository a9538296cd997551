package realestate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllRules_UniqueIDs(t *testing.T) {
	rules := AllRules()
	assert.Len(t, rules, 9)
	seen := make(map[string]bool)
	for _, r := range rules {
		assert.False(t, seen[r.ID], "duplicate rule ID %s", r.ID)
		seen[r.ID] = true
		assert.NotNil(t, r.CheckFn, "rule %s has no check", r.ID)
	}
}

func TestRule_Applies(t *testing.T) {
	rule := Rule{PropertyTypes: []string{"condo", "townhouse"}}
	assert.True(t, rule.Applies("condo"))
	assert.False(t, rule.Applies("single_family"))
	assert.True(t, Rule{PropertyTypes: []string{"*"}}.Applies("anything"))
	assert.True(t, Rule{}.Applies("anything"))
}

func TestRule_CheckWithoutFn(t *testing.T) {
	assert.Empty(t, Rule{}.Check(Property{}, Preferences{}))
}

func TestMatcher_Score(t *testing.T) {
	m := NewMatcher()
	pref := Preferences{
		MinPrice: 500000, MaxPrice: 800000, MinBedrooms: 3, MinBathrooms: 2,
		PropertyTypes: []string{"Single Family"}, Areas: []string{"oak-hills"}, MustHave: []string{"Garage"},
	}

	perfect := Property{ID: "P", Type: "single_family", AreaID: "oak-hills", Price: 650000,
		Bedrooms: 4, Bathrooms: 2.5, Features: []string{"garage"}}
	match, ok := m.Score(perfect, pref)
	require.True(t, ok)
	assert.Equal(t, 100, match.Score)
	assert.Empty(t, match.Findings)

	over := perfect
	over.Price = 850000
	match, ok = m.Score(over, pref)
	require.True(t, ok)
	assert.Equal(t, 75, match.Score)
	require.NotEmpty(t, match.Findings)
	assert.Equal(t, "BUD-002", match.Findings[0].RuleID)

	far := perfect
	far.Price = 900000
	_, ok = m.Score(far, pref)
	assert.False(t, ok, "far over budget should be blocking")

	poor := Property{ID: "Q", Type: "condo", AreaID: "downtown", Price: 450000, Bedrooms: 1, Bathrooms: 1, HOAMonthly: 300}
	match, ok = m.Score(poor, pref)
	require.True(t, ok, "poor fit should not be blocking")
	assert.Equal(t, 0, match.Score)
	var hoa *Finding
	for i, f := range match.Findings {
		if f.RuleID == "FIT-005" {
			hoa = &match.Findings[i]
		}
	}
	require.NotNil(t, hoa, "expected HOA finding for condo")
	assert.Equal(t, SeverityInfo, hoa.Severity)
}

func TestMatcher_MatchClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := NewMatcher()

	family, err := s.Client(ctx, "CLI001")
	require.NoError(t, err)
	report, err := m.MatchClient(ctx, s, family, 3)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Evaluated)
	assert.Equal(t, 1, report.Excluded)
	var got []string
	for _, mt := range report.Matches {
		got = append(got, mt.Property.ID)
		assert.Equal(t, 100, mt.Score, mt.Property.ID)
	}
	assert.Equal(t, []string{"PROP009", "PROP005", "PROP006"}, got)

	firstTime, err := s.Client(ctx, "CLI002")
	require.NoError(t, err)
	report, err = m.MatchClient(ctx, s, firstTime, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Excluded)
	require.Len(t, report.Matches, 3)
	assert.Equal(t, "PROP002", report.Matches[0].Property.ID)
}

func TestSeverityPenalty(t *testing.T) {
	cases := map[string]int{
		SeverityBlocking: 100,
		SeverityMajor:    25,
		SeverityMinor:    10,
		SeverityInfo:     0,
		"unknown":        5,
	}
	for sev, want := range cases {
		assert.Equal(t, want, SeverityPenalty(sev), sev)
	}
}

func TestMoney(t *testing.T) {
	cases := map[float64]string{
		0:        "$0",
		999:      "$999",
		1000:     "$1,000",
		425000:   "$425,000",
		1295000:  "$1,295,000",
		-12500:   "$-12,500",
		3787.349: "$3,787",
	}
	for v, want := range cases {
		assert.Equal(t, want, money(v), "money(%v)", v)
	}
}
