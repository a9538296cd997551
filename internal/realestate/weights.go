package realestate

// SeverityPenalty returns the points a finding takes off a match score.
// A blocking finding removes the property from the results.
func SeverityPenalty(sev string) int {
	penalties := map[string]int{
		SeverityBlocking: 100,
		SeverityMajor:    25,
		SeverityMinor:    10,
		SeverityInfo:     0,
	}
	if p, ok := penalties[sev]; ok {
		return p
	}
	return 5
}
