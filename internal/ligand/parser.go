package ligand

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// AtomInfo is the connectivity extracted from one ligand record
type AtomInfo struct {
	Elements []string
	Bonds    [][2]int // 1-based atom indices
}

// Parser extracts basic connectivity from a single-molecule file.
// Implementations may panic on malformed input; the decomposer recovers.
type Parser interface {
	ParseFile(path string) (*AtomInfo, error)
}

// ConnectivityParser is a best-effort reader for MDL molfiles (V2000 and
// V3000, including the first record of an SD file) and Tripos mol2 files.
type ConnectivityParser struct{}

func (ConnectivityParser) ParseFile(path string) (*AtomInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ligand file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".mol2") {
		return ParseMol2(data)
	}
	return ParseMolfile(data)
}

// ParseMolfile reads the header, atom block and bond block of a molfile
func ParseMolfile(data []byte) (*AtomInfo, error) {
	lines := splitLines(data)
	if len(lines) < 4 {
		return nil, fmt.Errorf("molfile too short: %d lines", len(lines))
	}

	counts := lines[3]
	if strings.Contains(counts, "V3000") {
		return parseV3000(lines[4:])
	}

	nAtoms, nBonds, err := parseCountsLine(counts)
	if err != nil {
		return nil, err
	}
	if nAtoms == 0 {
		return nil, fmt.Errorf("molfile declares no atoms")
	}
	if len(lines) < 4+nAtoms+nBonds {
		return nil, fmt.Errorf("molfile truncated: want %d atom and %d bond lines", nAtoms, nBonds)
	}

	info := &AtomInfo{
		Elements: make([]string, 0, nAtoms),
		Bonds:    make([][2]int, 0, nBonds),
	}
	for i := 0; i < nAtoms; i++ {
		symbol, err := atomSymbolV2000(lines[4+i])
		if err != nil {
			return nil, fmt.Errorf("atom %d: %w", i+1, err)
		}
		info.Elements = append(info.Elements, symbol)
	}
	for i := 0; i < nBonds; i++ {
		a, b, err := bondAtomsV2000(lines[4+nAtoms+i])
		if err != nil {
			return nil, fmt.Errorf("bond %d: %w", i+1, err)
		}
		info.Bonds = append(info.Bonds, [2]int{a, b})
	}

	if err := info.check(); err != nil {
		return nil, err
	}
	return info, nil
}

func parseCountsLine(line string) (int, int, error) {
	if len(line) >= 6 {
		a, errA := strconv.Atoi(strings.TrimSpace(line[0:3]))
		b, errB := strconv.Atoi(strings.TrimSpace(line[3:6]))
		if errA == nil && errB == nil {
			return a, b, nil
		}
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("invalid counts line %q", line)
	}
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid atom count %q", fields[0])
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bond count %q", fields[1])
	}
	return a, b, nil
}

func atomSymbolV2000(line string) (string, error) {
	if len(line) >= 34 {
		symbol := strings.TrimSpace(line[31:34])
		if isAtomSymbol(symbol) {
			if _, err := strconv.ParseFloat(strings.TrimSpace(line[0:10]), 64); err == nil {
				return symbol, nil
			}
		}
	}
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return "", fmt.Errorf("invalid atom line %q", line)
	}
	for _, f := range fields[:3] {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return "", fmt.Errorf("invalid coordinate %q", f)
		}
	}
	if !isAtomSymbol(fields[3]) {
		return "", fmt.Errorf("invalid atom symbol %q", fields[3])
	}
	return fields[3], nil
}

func bondAtomsV2000(line string) (int, int, error) {
	if len(line) >= 9 {
		a, errA := strconv.Atoi(strings.TrimSpace(line[0:3]))
		b, errB := strconv.Atoi(strings.TrimSpace(line[3:6]))
		if errA == nil && errB == nil {
			return a, b, nil
		}
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0, fmt.Errorf("invalid bond line %q", line)
	}
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bond atom %q", fields[0])
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bond atom %q", fields[1])
	}
	return a, b, nil
}

func parseV3000(lines []string) (*AtomInfo, error) {
	info := &AtomInfo{}
	declaredAtoms, declaredBonds := -1, -1
	section := ""

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "M  END" || line == "M END" {
			break
		}
		if !strings.HasPrefix(line, "M  V30") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "M  V30"))
		if len(fields) == 0 {
			continue
		}

		switch {
		case fields[0] == "COUNTS" && len(fields) >= 3:
			a, errA := strconv.Atoi(fields[1])
			b, errB := strconv.Atoi(fields[2])
			if errA != nil || errB != nil {
				return nil, fmt.Errorf("invalid V3000 counts line %q", line)
			}
			declaredAtoms, declaredBonds = a, b
		case fields[0] == "BEGIN" && len(fields) >= 2:
			section = fields[1]
		case fields[0] == "END":
			section = ""
		case section == "ATOM":
			if len(fields) < 5 || !isAtomSymbol(fields[1]) {
				return nil, fmt.Errorf("invalid V3000 atom line %q", line)
			}
			info.Elements = append(info.Elements, fields[1])
		case section == "BOND":
			if len(fields) < 4 {
				return nil, fmt.Errorf("invalid V3000 bond line %q", line)
			}
			a, errA := strconv.Atoi(fields[2])
			b, errB := strconv.Atoi(fields[3])
			if errA != nil || errB != nil {
				return nil, fmt.Errorf("invalid V3000 bond line %q", line)
			}
			info.Bonds = append(info.Bonds, [2]int{a, b})
		}
	}

	if declaredAtoms < 0 {
		return nil, fmt.Errorf("V3000 molfile has no COUNTS line")
	}
	if declaredAtoms != len(info.Elements) || declaredBonds != len(info.Bonds) {
		return nil, fmt.Errorf("V3000 counts mismatch: declared %d/%d, found %d/%d",
			declaredAtoms, declaredBonds, len(info.Elements), len(info.Bonds))
	}
	if err := info.check(); err != nil {
		return nil, err
	}
	return info, nil
}

// ParseMol2 reads the ATOM and BOND sections of a Tripos mol2 file
func ParseMol2(data []byte) (*AtomInfo, error) {
	info := &AtomInfo{}
	section := ""
	declaredAtoms, declaredBonds := -1, -1
	moleculeLine := 0

	for _, raw := range splitLines(data) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "@<TRIPOS>") {
			next := strings.TrimPrefix(line, "@<TRIPOS>")
			if next == "MOLECULE" && section != "" {
				// only the first molecule is read
				break
			}
			section = next
			moleculeLine = 0
			continue
		}

		fields := strings.Fields(line)
		switch section {
		case "MOLECULE":
			moleculeLine++
			if moleculeLine == 2 {
				a, err := strconv.Atoi(fields[0])
				if err != nil {
					return nil, fmt.Errorf("invalid mol2 atom count %q", fields[0])
				}
				declaredAtoms = a
				if len(fields) > 1 {
					if b, err := strconv.Atoi(fields[1]); err == nil {
						declaredBonds = b
					}
				}
			}
		case "ATOM":
			if len(fields) < 6 {
				return nil, fmt.Errorf("invalid mol2 atom line %q", line)
			}
			element := strings.SplitN(fields[5], ".", 2)[0]
			if !isAtomSymbol(element) {
				return nil, fmt.Errorf("invalid mol2 atom type %q", fields[5])
			}
			info.Elements = append(info.Elements, element)
		case "BOND":
			if len(fields) < 4 {
				return nil, fmt.Errorf("invalid mol2 bond line %q", line)
			}
			a, errA := strconv.Atoi(fields[1])
			b, errB := strconv.Atoi(fields[2])
			if errA != nil || errB != nil {
				return nil, fmt.Errorf("invalid mol2 bond line %q", line)
			}
			info.Bonds = append(info.Bonds, [2]int{a, b})
		}
	}

	if declaredAtoms >= 0 && declaredAtoms != len(info.Elements) {
		return nil, fmt.Errorf("mol2 declares %d atoms, found %d", declaredAtoms, len(info.Elements))
	}
	if declaredBonds >= 0 && declaredBonds != len(info.Bonds) {
		return nil, fmt.Errorf("mol2 declares %d bonds, found %d", declaredBonds, len(info.Bonds))
	}
	if err := info.check(); err != nil {
		return nil, err
	}
	return info, nil
}

// check verifies that the record has atoms and that every bond joins two
// distinct existing atoms.
func (a *AtomInfo) check() error {
	if len(a.Elements) == 0 {
		return fmt.Errorf("no atoms found")
	}
	for i, bond := range a.Bonds {
		for _, idx := range bond {
			if idx < 1 || idx > len(a.Elements) {
				return fmt.Errorf("bond %d references atom %d of %d", i+1, idx, len(a.Elements))
			}
		}
		if bond[0] == bond[1] {
			return fmt.Errorf("bond %d joins atom %d to itself", i+1, bond[0])
		}
	}
	return nil
}

func isAtomSymbol(s string) bool {
	if s == "" || len(s) > 3 {
		return false
	}
	if s == "*" || s == "R#" {
		return true
	}
	for i, r := range s {
		if i == 0 && !unicode.IsUpper(r) {
			return false
		}
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func splitLines(data []byte) []string {
	lines := make([]string, 0, bytes.Count(data, []byte{'\n'})+1)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines
}
