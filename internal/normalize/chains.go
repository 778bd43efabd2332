package normalize

import (
	"fmt"
	"strings"

	"github.com/sourceplane/foldbatch/internal/model"
)

// DefaultPairingDB is used when a chain has an alignment directory but no
// pairing database.
const DefaultPairingDB = "uniref100"

// Chains transforms raw protein chains into canonical form: sequences are
// trimmed, counts default to 1, and repeated sequences are dropped (the first
// occurrence wins). The dropped sequences are returned for reporting.
func Chains(chains []model.ProteinChain) ([]model.ProteinChain, []string, error) {
	if len(chains) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one protein chain is required", model.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(chains))
	normalized := make([]model.ProteinChain, 0, len(chains))
	duplicates := make([]string, 0)

	for i, chain := range chains {
		chain.Sequence = strings.Join(strings.Fields(chain.Sequence), "")
		if chain.Sequence == "" {
			return nil, nil, fmt.Errorf("%w: protein chain %d has an empty sequence", model.ErrInvalidInput, i)
		}

		// Set count default
		if chain.Count == 0 {
			chain.Count = 1
		}
		if chain.Count < 0 {
			return nil, nil, fmt.Errorf("%w: protein chain %s has negative count %d", model.ErrInvalidInput, abbreviate(chain.Sequence), chain.Count)
		}

		chain.MSA.PrecomputedDir = strings.TrimSpace(chain.MSA.PrecomputedDir)
		chain.MSA.PairingDB = strings.TrimSpace(chain.MSA.PairingDB)
		if chain.MSA.PrecomputedDir != "" && chain.MSA.PairingDB == "" {
			chain.MSA.PairingDB = DefaultPairingDB
		}

		if seen[chain.Sequence] {
			duplicates = append(duplicates, chain.Sequence)
			continue
		}
		seen[chain.Sequence] = true
		normalized = append(normalized, chain)
	}

	return normalized, duplicates, nil
}

// abbreviate shortens long sequences for messages
func abbreviate(seq string) string {
	if len(seq) <= 16 {
		return seq
	}
	return seq[:16] + "..."
}
