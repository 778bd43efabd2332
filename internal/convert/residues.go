package convert

// Polymer kinds
const (
	KindProtein = "protein"
	KindDNA     = "dna"
	KindRNA     = "rna"
)

var aminoAcids = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"SEC": 'U', "PYL": 'O', "MSE": 'M', "UNK": 'X',
}

var deoxyNucleotides = map[string]byte{
	"DA": 'A', "DC": 'C', "DG": 'G', "DT": 'T', "DI": 'I', "DN": 'N',
}

var ribonucleotides = map[string]byte{
	"A": 'A', "C": 'C', "G": 'G', "U": 'U', "I": 'I', "N": 'N',
}

// modified residues commonly written as HETATM inside a polymer chain
var polymerHetero = map[string]bool{
	"MSE": true, "SEC": true, "PYL": true,
}

var waters = map[string]bool{
	"HOH": true, "WAT": true, "DOD": true, "H2O": true,
}

// single-atom ions written as their own entity kind
var ions = map[string]bool{
	"NA": true, "K": true, "MG": true, "CA": true, "ZN": true, "MN": true,
	"FE": true, "FE2": true, "CO": true, "NI": true, "CU": true, "CU1": true,
	"CD": true, "CL": true, "BR": true, "IOD": true, "LI": true, "RB": true,
	"CS": true, "SR": true, "BA": true, "HG": true,
}

// classifyPolymer decides the polymer kind from its residue names. Unknown
// residue names count for nothing; a tie goes to protein.
func classifyPolymer(residues []string) string {
	var protein, dna, rna int
	for _, r := range residues {
		if _, ok := aminoAcids[r]; ok {
			protein++
		}
		if _, ok := deoxyNucleotides[r]; ok {
			dna++
		}
		if _, ok := ribonucleotides[r]; ok {
			rna++
		}
	}
	switch {
	case dna > protein && dna >= rna:
		return KindDNA
	case rna > protein && rna > dna:
		return KindRNA
	default:
		return KindProtein
	}
}

// oneLetter maps residue names to a one-letter sequence; unknown residues become X (or N for nucleic acids)
func oneLetter(kind string, residues []string) string {
	table, unknown := aminoAcids, byte('X')
	switch kind {
	case KindDNA:
		table, unknown = deoxyNucleotides, 'N'
	case KindRNA:
		table, unknown = ribonucleotides, 'N'
	}

	seq := make([]byte, 0, len(residues))
	for _, r := range residues {
		if c, ok := table[r]; ok {
			seq = append(seq, c)
		} else {
			seq = append(seq, unknown)
		}
	}
	return string(seq)
}
