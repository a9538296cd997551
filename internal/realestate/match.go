package realestate

import (
	"context"
	"sort"
)

// Match is a scored candidate property for a client.
type Match struct {
	Property PropertySummary `json:"property"`
	Score    int             `json:"score"`
	Findings []Finding       `json:"findings,omitempty"`
}

// MatchReport is the outcome of matching a client against active listings.
type MatchReport struct {
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	Evaluated  int     `json:"evaluated"`
	Excluded   int     `json:"excluded"`
	Matches    []Match `json:"matches"`
}

// Matcher scores properties against client preferences.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a Matcher using AllRules.
func NewMatcher() *Matcher {
	return &Matcher{rules: AllRules()}
}

// Score evaluates p. The score starts at 100 and loses SeverityPenalty for
// each finding; ok is false when a blocking rule fired.
func (m *Matcher) Score(p Property, pref Preferences) (match Match, ok bool) {
	match = Match{Property: p.Summary(), Score: 100}
	ok = true
	for _, rule := range m.rules {
		if !rule.Applies(p.Type) {
			continue
		}
		msg := rule.Check(p, pref)
		if msg == "" {
			continue
		}
		match.Findings = append(match.Findings, Finding{
			RuleID:   rule.ID,
			Category: rule.Category,
			Severity: rule.Severity,
			Message:  msg,
		})
		match.Score -= SeverityPenalty(rule.Severity)
		if rule.Severity == SeverityBlocking {
			ok = false
		}
	}
	if match.Score < 0 {
		match.Score = 0
	}
	return match, ok
}

// MatchClient scores every active listing for c and returns the best limit
// matches, highest score first and cheapest first among equals.
func (m *Matcher) MatchClient(ctx context.Context, s *Store, c Client, limit int) (MatchReport, error) {
	candidates, err := s.SearchProperties(ctx, PropertyFilter{})
	if err != nil {
		return MatchReport{}, err
	}

	report := MatchReport{ClientID: c.ID, ClientName: c.Name, Evaluated: len(candidates), Matches: []Match{}}
	for _, p := range candidates {
		match, ok := m.Score(p, c.Preferences)
		if !ok {
			report.Excluded++
			continue
		}
		report.Matches = append(report.Matches, match)
	}
	sort.SliceStable(report.Matches, func(i, j int) bool {
		a, b := report.Matches[i], report.Matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Property.Price < b.Property.Price
	})
	if limit > 0 && len(report.Matches) > limit {
		report.Matches = report.Matches[:limit]
	}
	return report, nil
}
