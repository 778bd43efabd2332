package convert

import (
	"encoding/json"
	"fmt"

	"github.com/sourceplane/foldbatch/internal/model"
)

// Polymer is one polymer chain with its residue names in order
type Polymer struct {
	ChainID  string
	Residues []string
}

// Structure is what the converter needs from a structure file: polymer
// chains and hetero groups, in file order.
type Structure struct {
	Name     string
	Polymers []Polymer
	Hetero   []string // residue name per non-water hetero group instance
}

type entityBody struct {
	Sequence string `json:"sequence"`
	Count    int    `json:"count"`
}

type ionBody struct {
	Ion   string `json:"ion"`
	Count int    `json:"count"`
}

// Chains folds identical polymers and identical hetero groups into counted
// chain entries, keeping first-appearance order.
func (s *Structure) Chains() ([]model.ChainEntry, error) {
	type entity struct {
		kind  string
		value string
		count int
	}
	order := make([]*entity, 0)
	index := make(map[string]*entity)

	add := func(kind, value string) {
		key := kind + "\x00" + value
		if e, ok := index[key]; ok {
			e.count++
			return
		}
		e := &entity{kind: kind, value: value, count: 1}
		index[key] = e
		order = append(order, e)
	}

	for _, p := range s.Polymers {
		if len(p.Residues) == 0 {
			continue
		}
		kind := classifyPolymer(p.Residues)
		add(kind, oneLetter(kind, p.Residues))
	}
	for _, code := range s.Hetero {
		if ions[code] {
			add("ion", code)
			continue
		}
		add("ligand", code)
	}

	chains := make([]model.ChainEntry, 0, len(order))
	for _, e := range order {
		switch e.kind {
		case KindProtein:
			chains = append(chains, model.ChainEntry{Protein: &model.ProteinEntry{Sequence: e.value, Count: e.count}})
		case "ligand":
			chains = append(chains, model.ChainEntry{Ligand: &model.LigandEntry{Ligand: "CCD_" + e.value, Count: e.count}})
		default:
			raw, err := rawEntity(e.kind, e.value, e.count)
			if err != nil {
				return nil, err
			}
			chains = append(chains, model.ChainEntry{Raw: raw})
		}
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("%w: structure %s has no polymer chains or ligands", model.ErrNoValidInput, s.Name)
	}
	return chains, nil
}

func rawEntity(kind, value string, count int) (json.RawMessage, error) {
	var payload map[string]interface{}
	switch kind {
	case KindDNA:
		payload = map[string]interface{}{"dnaSequence": entityBody{Sequence: value, Count: count}}
	case KindRNA:
		payload = map[string]interface{}{"rnaSequence": entityBody{Sequence: value, Count: count}}
	case "ion":
		payload = map[string]interface{}{"ion": ionBody{Ion: value, Count: count}}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return json.Marshal(payload)
}
