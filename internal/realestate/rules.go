package realestate

import (
	"fmt"
	"slices"
	"strings"
)

// Severity levels for match findings.
const (
	SeverityBlocking = "blocking"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
	SeverityInfo     = "info"
)

// Finding is one way a property departs from a client's preferences.
type Finding struct {
	RuleID   string `json:"rule_id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Rule is a deterministic check of a property against preferences.
type Rule struct {
	ID       string
	Category string
	Severity string
	Title    string

	// PropertyTypes this rule applies to (empty = all)
	PropertyTypes []string

	CheckFn func(p Property, pref Preferences) string
}

// Applies returns true if this rule applies to the given property type.
func (r Rule) Applies(propertyType string) bool {
	if len(r.PropertyTypes) == 0 {
		return true
	}
	for _, t := range r.PropertyTypes {
		if t == propertyType || t == "*" {
			return true
		}
	}
	return false
}

// Check returns a message when p violates the rule, or "".
func (r Rule) Check(p Property, pref Preferences) string {
	if r.CheckFn == nil {
		return ""
	}
	return r.CheckFn(p, pref)
}

// AllRules returns every match rule.
func AllRules() []Rule {
	var rules []Rule
	rules = append(rules, budgetRules()...)
	rules = append(rules, fitRules()...)
	rules = append(rules, locationRules()...)
	return rules
}

// budgetTolerance is how far over budget a property may be before it is
// excluded outright.
const budgetTolerance = 1.10

func budgetRules() []Rule {
	return []Rule{
		{
			ID:       "BUD-001",
			Category: "Budget",
			Severity: SeverityBlocking,
			Title:    "Far Over Budget",
			CheckFn: func(p Property, pref Preferences) string {
				if pref.MaxPrice > 0 && p.Price > pref.MaxPrice*budgetTolerance {
					return fmt.Sprintf("price %s is more than 10%% over the %s budget", money(p.Price), money(pref.MaxPrice))
				}
				return ""
			},
		},
		{
			ID:       "BUD-002",
			Category: "Budget",
			Severity: SeverityMajor,
			Title:    "Over Budget",
			CheckFn: func(p Property, pref Preferences) string {
				if pref.MaxPrice > 0 && p.Price > pref.MaxPrice && p.Price <= pref.MaxPrice*budgetTolerance {
					return fmt.Sprintf("price %s is %s over budget", money(p.Price), money(p.Price-pref.MaxPrice))
				}
				return ""
			},
		},
		{
			ID:       "BUD-003",
			Category: "Budget",
			Severity: SeverityMinor,
			Title:    "Below Price Range",
			CheckFn: func(p Property, pref Preferences) string {
				if pref.MinPrice > 0 && p.Price < pref.MinPrice {
					return fmt.Sprintf("price %s is below the %s minimum", money(p.Price), money(pref.MinPrice))
				}
				return ""
			},
		},
	}
}

func fitRules() []Rule {
	return []Rule{
		{
			ID:       "FIT-001",
			Category: "Fit",
			Severity: SeverityMajor,
			Title:    "Too Few Bedrooms",
			CheckFn: func(p Property, pref Preferences) string {
				if p.Bedrooms < pref.MinBedrooms {
					return fmt.Sprintf("%d bedrooms, wants at least %d", p.Bedrooms, pref.MinBedrooms)
				}
				return ""
			},
		},
		{
			ID:       "FIT-002",
			Category: "Fit",
			Severity: SeverityMinor,
			Title:    "Too Few Bathrooms",
			CheckFn: func(p Property, pref Preferences) string {
				if p.Bathrooms < pref.MinBathrooms {
					return fmt.Sprintf("%g bathrooms, wants at least %g", p.Bathrooms, pref.MinBathrooms)
				}
				return ""
			},
		},
		{
			ID:       "FIT-003",
			Category: "Fit",
			Severity: SeverityMajor,
			Title:    "Property Type Not Preferred",
			CheckFn: func(p Property, pref Preferences) string {
				if len(pref.PropertyTypes) == 0 {
					return ""
				}
				for _, t := range pref.PropertyTypes {
					if NormalizeType(t) == p.Type {
						return ""
					}
				}
				return fmt.Sprintf("%s is not one of %s", p.Type, strings.Join(pref.PropertyTypes, ", "))
			},
		},
		{
			ID:       "FIT-004",
			Category: "Fit",
			Severity: SeverityMajor,
			Title:    "Missing Must-Have Features",
			CheckFn: func(p Property, pref Preferences) string {
				if missing := missingFeatures(p.Features, pref.MustHave); len(missing) > 0 {
					return "missing " + strings.Join(missing, ", ")
				}
				return ""
			},
		},
		{
			ID:            "FIT-005",
			Category:      "Fit",
			Severity:      SeverityInfo,
			Title:         "HOA Dues",
			PropertyTypes: []string{"condo", "townhouse"},
			CheckFn: func(p Property, _ Preferences) string {
				if p.HOAMonthly > 0 {
					return fmt.Sprintf("HOA dues of %s per month", money(p.HOAMonthly))
				}
				return ""
			},
		},
	}
}

func locationRules() []Rule {
	return []Rule{
		{
			ID:       "LOC-001",
			Category: "Location",
			Severity: SeverityMajor,
			Title:    "Area Not Preferred",
			CheckFn: func(p Property, pref Preferences) string {
				if len(pref.Areas) > 0 && !slices.Contains(pref.Areas, p.AreaID) {
					return fmt.Sprintf("located in %s, outside the preferred areas", p.AreaID)
				}
				return ""
			},
		},
	}
}

func missingFeatures(have, want []string) []string {
	set := make(map[string]bool, len(have))
	for _, f := range have {
		set[strings.ToLower(f)] = true
	}
	var missing []string
	for _, f := range want {
		if !set[strings.ToLower(f)] {
			missing = append(missing, f)
		}
	}
	return missing
}

func money(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 && s[i-1] != '-' {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "$" + b.String()
}
