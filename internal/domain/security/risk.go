package security

// severityWeights maps severities to risk contributions.
var severityWeights = map[Severity]float64{
	SeverityLow:      0.1,
	SeverityMedium:   0.3,
	SeverityHigh:     0.7,
	SeverityCritical: 1.0,
}

// RiskScore computes the clamped weighted sum of violation severities.
// Pure function of its input; never returns outside [0, 1].
func RiskScore(violations []Violation) float64 {
	total := 0.0
	for _, v := range violations {
		w, ok := severityWeights[v.Severity]
		if !ok {
			w = 0.5
		}
		total += w
	}
	if total > 1.0 {
		return 1.0
	}
	return total
}
