package ligand

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const sdfDelimiter = "$$$$"

// SplitSDF splits SD file content into records. Each returned record keeps
// its trailing "$$$$" line; trailing content without a delimiter counts as a
// record only if it is not blank.
func SplitSDF(data []byte) [][]byte {
	records := make([][]byte, 0)
	var current bytes.Buffer

	for _, line := range strings.SplitAfter(string(data), "\n") {
		if line == "" {
			continue
		}
		current.WriteString(line)
		if strings.TrimSpace(line) == sdfDelimiter {
			records = append(records, append([]byte(nil), current.Bytes()...))
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		rest := current.String()
		if !strings.HasSuffix(rest, "\n") {
			rest += "\n"
		}
		records = append(records, []byte(rest+sdfDelimiter+"\n"))
	}
	return records
}

// ReadSDF reads and splits an SD file
func ReadSDF(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sdf file: %w", err)
	}
	return SplitSDF(data), nil
}
