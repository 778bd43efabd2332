package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MSARef points at precomputed alignment data for one protein chain
type MSARef struct {
	PrecomputedDir string `yaml:"precomputed_msa_dir" json:"precomputed_msa_dir,omitempty"`
	PairingDB      string `yaml:"pairing_db" json:"pairing_db,omitempty"`
}

// IsEmpty reports whether the reference carries no alignment data
func (m MSARef) IsEmpty() bool {
	return strings.TrimSpace(m.PrecomputedDir) == "" && strings.TrimSpace(m.PairingDB) == ""
}

// ProteinChain is one protein chain of a job, keyed by its sequence
type ProteinChain struct {
	Sequence string `yaml:"sequence" json:"sequence"`
	Count    int    `yaml:"count" json:"count"`
	MSA      MSARef `yaml:"msa" json:"msa"`
}

// LigandRecord is one atomic ligand unit extracted from a source file
type LigandRecord struct {
	Name   string
	Source string // file the record came from
	File   string // single-molecule file, empty for SMILES records
	SMILES string
	Valid  bool
	Err    error
}

// Identifier renders the ligand string stored in a job descriptor
func (r LigandRecord) Identifier() string {
	if r.File != "" {
		return "FILE_" + r.File
	}
	return r.SMILES
}

// Ligand group kinds
const (
	GroupSDF  = "sdf"
	GroupSMI  = "smi"
	GroupFile = "file"
)

// LigandGroup is the set of records derived from one source ligand file.
// Each group becomes exactly one job.
type LigandGroup struct {
	Name    string
	Source  string
	Kind    string
	Records []LigandRecord
}

// RecordFailure is a ligand record rejected during decomposition
type RecordFailure struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// ProteinEntry is the persisted form of a protein chain. Extra keeps
// members this tool does not interpret (modifications, ...).
type ProteinEntry struct {
	Sequence string                     `json:"sequence"`
	Count    int                        `json:"count"`
	MSA      *MSARef                    `json:"msa,omitempty"`
	Extra    map[string]json.RawMessage `json:"-"`
}

// HasMSA reports whether the entry carries non-empty alignment data
func (p *ProteinEntry) HasMSA() bool {
	return p.MSA != nil && !p.MSA.IsEmpty()
}

// LigandEntry is the persisted form of a ligand chain
type LigandEntry struct {
	Ligand string                     `json:"ligand"`
	Count  int                        `json:"count"`
	Extra  map[string]json.RawMessage `json:"-"`
}

// ChainEntry is one element of a job's "sequences" list. Exactly one of
// Protein, Ligand or Raw is set; Raw keeps entity kinds this tool does not
// interpret (dnaSequence, rnaSequence, ion, ...) byte for byte.
type ChainEntry struct {
	Protein *ProteinEntry
	Ligand  *LigandEntry
	Raw     json.RawMessage
}

// NewProteinEntry wraps a protein chain as a chain entry
func NewProteinEntry(chain ProteinChain) ChainEntry {
	count := chain.Count
	if count < 1 {
		count = 1
	}
	entry := &ProteinEntry{Sequence: chain.Sequence, Count: count}
	if !chain.MSA.IsEmpty() {
		msa := chain.MSA
		entry.MSA = &msa
	}
	return ChainEntry{Protein: entry}
}

// NewLigandEntry wraps a ligand record as a chain entry
func NewLigandEntry(record LigandRecord) ChainEntry {
	return ChainEntry{Ligand: &LigandEntry{Ligand: record.Identifier(), Count: 1}}
}

type chainEntryPayload struct {
	ProteinChain *ProteinEntry `json:"proteinChain,omitempty"`
	Ligand       *LigandEntry  `json:"ligand,omitempty"`
}

func (c ChainEntry) MarshalJSON() ([]byte, error) {
	switch {
	case c.Protein != nil:
		return json.Marshal(chainEntryPayload{ProteinChain: c.Protein})
	case c.Ligand != nil:
		return json.Marshal(chainEntryPayload{Ligand: c.Ligand})
	case len(c.Raw) > 0:
		return c.Raw, nil
	default:
		return nil, fmt.Errorf("chain entry has no kind set")
	}
}

func (c *ChainEntry) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("chain entry must be an object: %w", err)
	}
	if len(keys) != 1 {
		return fmt.Errorf("chain entry must have exactly one entity kind, got %d", len(keys))
	}

	*c = ChainEntry{}
	if body, ok := keys["proteinChain"]; ok {
		var p ProteinEntry
		if err := json.Unmarshal(body, &p); err != nil {
			return fmt.Errorf("invalid proteinChain: %w", err)
		}
		c.Protein = &p
		return nil
	}
	if body, ok := keys["ligand"]; ok {
		var l LigandEntry
		if err := json.Unmarshal(body, &l); err != nil {
			return fmt.Errorf("invalid ligand: %w", err)
		}
		c.Ligand = &l
		return nil
	}

	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Kind returns the entity kind name used in the persisted format
func (c ChainEntry) Kind() string {
	switch {
	case c.Protein != nil:
		return "proteinChain"
	case c.Ligand != nil:
		return "ligand"
	case len(c.Raw) > 0:
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(c.Raw, &keys); err == nil {
			for k := range keys {
				return k
			}
		}
	}
	return ""
}
