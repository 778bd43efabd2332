package loader

import (
	"fmt"
	"os"

	"github.com/sourceplane/foldbatch/internal/model"
	"gopkg.in/yaml.v3"
)

// proteinMSAEntry is one value of the sequence -> alignment mapping form
type proteinMSAEntry struct {
	PrecomputedDir string `yaml:"precomputed_msa_dir,omitempty"`
	PairingDB      string `yaml:"pairing_db,omitempty"`
	Count          int    `yaml:"count,omitempty"`
}

// LoadProteinChains loads protein chains with their alignment data from a
// YAML or JSON file. Two shapes are accepted:
//
//	MGHHHHHH:                     # mapping form, document order is kept
//	  precomputed_msa_dir: /msa/1
//	  pairing_db: uniref100
//
//	- sequence: MGHHHHHH          # list form
//	  count: 2
//	  msa: {precomputed_msa_dir: /msa/1, pairing_db: uniref100}
func LoadProteinChains(path string) ([]model.ProteinChain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read protein file: %w", err)
	}
	return ParseProteinChains(data)
}

// ParseProteinChains decodes either accepted protein file shape
func ParseProteinChains(data []byte) ([]model.ProteinChain, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: failed to parse protein file: %v", model.ErrInvalidInput, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: protein file is empty", model.ErrInvalidInput)
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.MappingNode:
		chains := make([]model.ProteinChain, 0, len(doc.Content)/2)
		for i := 0; i+1 < len(doc.Content); i += 2 {
			key, value := doc.Content[i], doc.Content[i+1]
			var entry proteinMSAEntry
			if err := value.Decode(&entry); err != nil {
				return nil, fmt.Errorf("%w: sequence %q: %v", model.ErrInvalidInput, key.Value, err)
			}
			chains = append(chains, model.ProteinChain{
				Sequence: key.Value,
				Count:    entry.Count,
				MSA: model.MSARef{
					PrecomputedDir: entry.PrecomputedDir,
					PairingDB:      entry.PairingDB,
				},
			})
		}
		return chains, nil
	case yaml.SequenceNode:
		var chains []model.ProteinChain
		if err := doc.Decode(&chains); err != nil {
			return nil, fmt.Errorf("%w: failed to decode protein list: %v", model.ErrInvalidInput, err)
		}
		return chains, nil
	default:
		return nil, fmt.Errorf("%w: protein file must be a mapping or a list", model.ErrInvalidInput)
	}
}

// WriteProteinChains writes chains in the mapping form read by LoadProteinChains
func WriteProteinChains(path string, chains []model.ProteinChain) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, chain := range chains {
		value := &yaml.Node{}
		entry := proteinMSAEntry{
			PrecomputedDir: chain.MSA.PrecomputedDir,
			PairingDB:      chain.MSA.PairingDB,
			Count:          chain.Count,
		}
		if err := value.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode chain %s: %w", chain.Sequence, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: chain.Sequence}, value)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to render protein file: %w", err)
	}
	return WriteFileAtomic(path, data)
}
