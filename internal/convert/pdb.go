package convert

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// AltLocFirst keeps the first alternate location seen for each residue
const AltLocFirst = "first"

// Reader extracts a Structure from a structure file
type Reader interface {
	Read(path string) (*Structure, error)
}

// PDBReader reads fixed-column PDB files. Only the first model is read.
// Chains with SEQRES records use them; other chains are built from
// their coordinate records.
type PDBReader struct {
	AltLoc string
}

type residueKey struct {
	chain  string
	seq    string
	insert string
}

// chainResidues accumulates residues in file order for one chain
type chainResidues struct {
	keys   []residueKey
	names  map[residueKey]string
	hetero map[residueKey]bool
	chosen map[residueKey]string
}

func newChainResidues() *chainResidues {
	return &chainResidues{
		names:  make(map[residueKey]string),
		hetero: make(map[residueKey]bool),
		chosen: make(map[residueKey]string),
	}
}

// add records one atom, dropping atoms of unselected alternate locations.
// A residue takes its name from the first atom kept.
func (c *chainResidues) add(key residueKey, name, altloc string, hetero bool, want string) {
	if altloc != "" {
		if want == AltLocFirst {
			if prev, ok := c.chosen[key]; ok && prev != altloc {
				return
			}
			c.chosen[key] = altloc
		} else if altloc != want {
			return
		}
	}
	if _, ok := c.names[key]; ok {
		return
	}
	c.keys = append(c.keys, key)
	c.names[key] = name
	c.hetero[key] = hetero
}

// split separates polymer residues from hetero groups. Modified residues
// such as MSE stay in the polymer.
func (c *chainResidues) split() ([]string, []string) {
	polymer := make([]string, 0, len(c.keys))
	hetero := make([]string, 0)
	for _, key := range c.keys {
		name := c.names[key]
		switch {
		case waters[name]:
		case !c.hetero[key] || polymerHetero[name]:
			polymer = append(polymer, name)
		default:
			hetero = append(hetero, name)
		}
	}
	return polymer, hetero
}

func (r PDBReader) Read(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdb file: %w", err)
	}
	defer f.Close()

	s, err := r.parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (r PDBReader) parse(src io.Reader) (*Structure, error) {
	altloc := r.AltLoc
	if altloc == "" {
		altloc = AltLocFirst
	}

	seqres := make(map[string][]string)
	seqresOrder := make([]string, 0)
	chains := make(map[string]*chainResidues)
	chainOrder := make([]string, 0)
	name := ""

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) < 6 {
			continue
		}

		switch record := strings.TrimSpace(line[:6]); record {
		case "HEADER":
			if len(line) >= 66 {
				name = strings.TrimSpace(line[62:66])
			}
		case "SEQRES":
			if len(line) < 19 {
				continue
			}
			chain := string(line[11])
			if _, ok := seqres[chain]; !ok {
				seqresOrder = append(seqresOrder, chain)
			}
			seqres[chain] = append(seqres[chain], strings.Fields(line[19:])...)
		case "ATOM", "HETATM":
			if len(line) < 27 {
				continue
			}
			chain := string(line[21])
			key := residueKey{
				chain:  chain,
				seq:    strings.TrimSpace(line[22:26]),
				insert: strings.TrimSpace(line[26:27]),
			}
			c, ok := chains[chain]
			if !ok {
				c = newChainResidues()
				chains[chain] = c
				chainOrder = append(chainOrder, chain)
			}
			c.add(key, strings.TrimSpace(line[17:20]), strings.TrimSpace(line[16:17]), record == "HETATM", altloc)
		case "ENDMDL":
			return assemble(name, seqres, seqresOrder, chains, chainOrder), scanner.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pdb file: %w", err)
	}
	return assemble(name, seqres, seqresOrder, chains, chainOrder), nil
}

// assemble orders chains by first appearance in coordinates, then appends
// SEQRES-only chains.
func assemble(name string, seqres map[string][]string, seqresOrder []string, chains map[string]*chainResidues, chainOrder []string) *Structure {
	s := &Structure{Name: name}
	seen := make(map[string]bool)

	for _, id := range chainOrder {
		seen[id] = true
		polymer, hetero := chains[id].split()
		if declared, ok := seqres[id]; ok {
			polymer = declared
		}
		if len(polymer) > 0 {
			s.Polymers = append(s.Polymers, Polymer{ChainID: id, Residues: polymer})
		}
		s.Hetero = append(s.Hetero, hetero...)
	}
	for _, id := range seqresOrder {
		if !seen[id] {
			s.Polymers = append(s.Polymers, Polymer{ChainID: id, Residues: seqres[id]})
		}
	}
	return s
}
