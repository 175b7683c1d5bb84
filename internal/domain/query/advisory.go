package query

import (
	"fmt"
	"regexp"
	"strings"
)

// validChainPrefixes are the SAP BW naming-convention prefixes for
// process chains. Customer chains use ZPC_, test chains TPC_,
// development chains DPC_.
var validChainPrefixes = []string{"PC_", "ZPC_", "TPC_", "DPC_"}

// maxChainIDLen is the SAP BW limit on technical chain names.
const maxChainIDLen = 30

// chainRefPattern finds chain-identifier-shaped tokens in free text.
var chainRefPattern = regexp.MustCompile(`(?i)\b[a-z0-9]*pc_[a-z0-9_]+\b`)

// ChainNameAdvisories checks chain identifiers mentioned in a question
// against the naming conventions. Findings are advisory notes only and
// never block a request.
func ChainNameAdvisories(question string) []string {
	var advisories []string
	seen := make(map[string]bool)

	for _, match := range chainRefPattern.FindAllString(question, -1) {
		chainID := strings.ToUpper(match)
		if seen[chainID] {
			continue
		}
		seen[chainID] = true

		validPrefix := false
		for _, prefix := range validChainPrefixes {
			if strings.HasPrefix(chainID, prefix) {
				validPrefix = true
				break
			}
		}
		if !validPrefix {
			advisories = append(advisories, fmt.Sprintf(
				"chain id %q does not follow naming conventions (expected a PC_, ZPC_, TPC_, or DPC_ prefix)", chainID))
		}
		if len(chainID) > maxChainIDLen {
			advisories = append(advisories, fmt.Sprintf(
				"chain id %q exceeds the maximum length of %d characters", chainID, maxChainIDLen))
		}
	}

	return advisories
}
