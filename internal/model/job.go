package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh 32-character hex identifier
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// JobDescriptor is one self-contained unit of inference work
type JobDescriptor struct {
	ID         string
	Name       string
	Chains     []ChainEntry
	Seeds      []int
	OutputPath string
	SourcePath string // file holding exactly this job, empty if never staged
	Extra      map[string]json.RawMessage
}

// ProteinEntries returns the protein chain entries in chain order
func (j *JobDescriptor) ProteinEntries() []*ProteinEntry {
	out := make([]*ProteinEntry, 0, len(j.Chains))
	for _, c := range j.Chains {
		if c.Protein != nil {
			out = append(out, c.Protein)
		}
	}
	return out
}

// Clone returns a deep copy whose chain entries can be modified safely
func (j *JobDescriptor) Clone() *JobDescriptor {
	out := *j
	out.Chains = make([]ChainEntry, len(j.Chains))
	for i, c := range j.Chains {
		switch {
		case c.Protein != nil:
			p := *c.Protein
			if c.Protein.MSA != nil {
				msa := *c.Protein.MSA
				p.MSA = &msa
			}
			p.Extra = cloneExtra(c.Protein.Extra)
			out.Chains[i] = ChainEntry{Protein: &p}
		case c.Ligand != nil:
			l := *c.Ligand
			l.Extra = cloneExtra(c.Ligand.Extra)
			out.Chains[i] = ChainEntry{Ligand: &l}
		default:
			out.Chains[i] = ChainEntry{Raw: append(json.RawMessage(nil), c.Raw...)}
		}
	}
	if j.Seeds != nil {
		out.Seeds = append([]int(nil), j.Seeds...)
	}
	out.Extra = cloneExtra(j.Extra)
	return &out
}

// JobDocument is the on-disk shape of one job inside a job file. Extra
// keeps top-level members such as covalent_bonds verbatim.
type JobDocument struct {
	Sequences  []ChainEntry               `json:"sequences"`
	Name       string                     `json:"name"`
	ModelSeeds []int                      `json:"modelSeeds,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

// Document converts the descriptor to its persisted shape
func (j *JobDescriptor) Document() JobDocument {
	return JobDocument{
		Sequences:  j.Chains,
		Name:       j.Name,
		ModelSeeds: j.Seeds,
		Extra:      j.Extra,
	}
}

// MarshalJobFile renders descriptors as one JSON array, the format consumed
// by the prediction engine.
func MarshalJobFile(jobs ...*JobDescriptor) ([]byte, error) {
	docs := make([]JobDocument, 0, len(jobs))
	for _, job := range jobs {
		docs = append(docs, job.Document())
	}
	data, err := json.MarshalIndent(docs, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job file: %w", err)
	}
	return data, nil
}

// UnmarshalJobFile parses a job file into its documents
func UnmarshalJobFile(data []byte) ([]JobDocument, error) {
	var docs []JobDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	return docs, nil
}
