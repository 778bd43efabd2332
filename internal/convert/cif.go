package convert

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// CIFReader reads the _atom_site loop of an mmCIF file. Only the first
// model is read.
type CIFReader struct {
	AltLoc string
}

type cifToken struct {
	value  string
	quoted bool
}

// cifBlock holds every loop and key-value item of one data block, keyed by
// category ("_atom_site")
type cifBlock struct {
	name  string
	loops map[string]*cifLoop
}

type cifLoop struct {
	tags []string
	rows [][]string
}

func (l *cifLoop) column(tag string) int {
	for i, t := range l.tags {
		if t == tag {
			return i
		}
	}
	return -1
}

func (r CIFReader) Read(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cif file: %w", err)
	}
	defer f.Close()

	block, err := parseCIF(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s, err := r.structure(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (r CIFReader) structure(block *cifBlock) (*Structure, error) {
	atoms, ok := block.loops["_atom_site"]
	if !ok {
		return nil, fmt.Errorf("no _atom_site records")
	}

	col := func(tags ...string) int {
		for _, t := range tags {
			if i := atoms.column("_atom_site." + t); i >= 0 {
				return i
			}
		}
		return -1
	}
	group := col("group_PDB")
	comp := col("auth_comp_id", "label_comp_id")
	chain := col("auth_asym_id", "label_asym_id")
	seq := col("auth_seq_id", "label_seq_id")
	if group < 0 || comp < 0 || chain < 0 || seq < 0 {
		return nil, fmt.Errorf("_atom_site is missing group_PDB, comp_id, asym_id or seq_id")
	}
	alt := col("label_alt_id")
	ins := col("pdbx_PDB_ins_code")
	model := col("pdbx_PDB_model_num")

	altloc := r.AltLoc
	if altloc == "" {
		altloc = AltLocFirst
	}

	chains := make(map[string]*chainResidues)
	order := make([]string, 0)
	firstModel := ""

	for _, row := range atoms.rows {
		if model >= 0 {
			if firstModel == "" {
				firstModel = row[model]
			} else if row[model] != firstModel {
				break
			}
		}

		id := row[chain]
		key := residueKey{chain: id, seq: row[seq], insert: cifValue(row, ins)}
		c, ok := chains[id]
		if !ok {
			c = newChainResidues()
			chains[id] = c
			order = append(order, id)
		}
		c.add(key, row[comp], cifValue(row, alt), row[group] == "HETATM", altloc)
	}

	return assemble(block.name, nil, nil, chains, order), nil
}

// cifValue returns the column value, mapping the CIF null markers to ""
func cifValue(row []string, idx int) string {
	if idx < 0 {
		return ""
	}
	if v := row[idx]; v != "." && v != "?" {
		return v
	}
	return ""
}

// parseCIF reads the first data block
func parseCIF(src io.Reader) (*cifBlock, error) {
	tokens, err := tokenizeCIF(src)
	if err != nil {
		return nil, err
	}

	block := &cifBlock{loops: make(map[string]*cifLoop)}
	item := func(tag string) *cifLoop {
		category := tagCategory(tag)
		l, ok := block.loops[category]
		if !ok {
			l = &cifLoop{rows: [][]string{{}}}
			block.loops[category] = l
		}
		return l
	}

	for i := 0; i < len(tokens); {
		tok := tokens[i]
		lower := strings.ToLower(tok.value)
		switch {
		case !tok.quoted && strings.HasPrefix(lower, "data_"):
			if block.name != "" {
				return block, nil
			}
			block.name = tok.value[len("data_"):]
			i++
		case !tok.quoted && lower == "loop_":
			i++
			loop := &cifLoop{}
			for i < len(tokens) && !tokens[i].quoted && strings.HasPrefix(tokens[i].value, "_") {
				loop.tags = append(loop.tags, tokens[i].value)
				i++
			}
			if len(loop.tags) == 0 {
				return nil, fmt.Errorf("loop_ without tags")
			}
			values := make([]string, 0)
			for i < len(tokens) && !isCIFKeyword(tokens[i]) {
				values = append(values, tokens[i].value)
				i++
			}
			if len(values)%len(loop.tags) != 0 {
				return nil, fmt.Errorf("loop %s has %d values for %d tags", tagCategory(loop.tags[0]), len(values), len(loop.tags))
			}
			for j := 0; j < len(values); j += len(loop.tags) {
				loop.rows = append(loop.rows, values[j:j+len(loop.tags)])
			}
			block.loops[tagCategory(loop.tags[0])] = loop
		case !tok.quoted && strings.HasPrefix(tok.value, "_"):
			if i+1 >= len(tokens) || isCIFKeyword(tokens[i+1]) {
				return nil, fmt.Errorf("item %s has no value", tok.value)
			}
			l := item(tok.value)
			l.tags = append(l.tags, tok.value)
			l.rows[0] = append(l.rows[0], tokens[i+1].value)
			i += 2
		default:
			// save frames and global blocks are not used by structure files
			i++
		}
	}
	return block, nil
}

func tagCategory(tag string) string {
	if idx := strings.Index(tag, "."); idx > 0 {
		return tag[:idx]
	}
	return tag
}

func isCIFKeyword(tok cifToken) bool {
	if tok.quoted {
		return false
	}
	lower := strings.ToLower(tok.value)
	return strings.HasPrefix(tok.value, "_") || lower == "loop_" ||
		strings.HasPrefix(lower, "data_") || strings.HasPrefix(lower, "save_") || lower == "global_"
}

// tokenizeCIF splits CIF text into whitespace separated values, handling
// quoted strings, semicolon text fields and comments.
func tokenizeCIF(src io.Reader) ([]cifToken, error) {
	tokens := make([]cifToken, 0, 1024)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var text *strings.Builder
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if text != nil {
			if strings.HasPrefix(line, ";") {
				tokens = append(tokens, cifToken{value: strings.TrimSuffix(text.String(), "\n"), quoted: true})
				text = nil
				line = line[1:]
			} else {
				text.WriteString(line)
				text.WriteByte('\n')
				continue
			}
		} else if strings.HasPrefix(line, ";") {
			text = &strings.Builder{}
			text.WriteString(line[1:])
			text.WriteByte('\n')
			continue
		}

		lineTokens, err := splitCIFLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		tokens = append(tokens, lineTokens...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cif file: %w", err)
	}
	if text != nil {
		return nil, fmt.Errorf("unterminated text field")
	}
	return tokens, nil
}

func splitCIFLine(line string) ([]cifToken, error) {
	tokens := make([]cifToken, 0)
	i := 0
	for i < len(line) {
		ch := line[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '#':
			return tokens, nil
		case ch == '\'' || ch == '"':
			// a quote closes only when followed by whitespace or end of line
			end := -1
			for j := i + 1; j < len(line); j++ {
				if line[j] == ch && (j+1 == len(line) || line[j+1] == ' ' || line[j+1] == '\t') {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("unterminated quoted value")
			}
			tokens = append(tokens, cifToken{value: line[i+1 : end], quoted: true})
			i = end + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			tokens = append(tokens, cifToken{value: line[i:j]})
			i = j
		}
	}
	return tokens, nil
}
