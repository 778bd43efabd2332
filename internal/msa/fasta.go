package msa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sourceplane/foldbatch/internal/model"
)

// FastaRecord is one ">header" entry with its joined sequence lines
type FastaRecord struct {
	Header   string
	Sequence string
}

// ReadFasta reads every record of a FASTA file
func ReadFasta(path string) ([]FastaRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open fasta file: %w", err)
	}
	defer f.Close()

	records, err := ParseFasta(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseFasta parses FASTA records. Sequence lines before the first header
// and headers without sequence lines are invalid.
func ParseFasta(r io.Reader) ([]FastaRecord, error) {
	records := make([]FastaRecord, 0)
	var current *FastaRecord
	var seq strings.Builder

	flush := func() error {
		if current == nil {
			return nil
		}
		if seq.Len() == 0 {
			return fmt.Errorf("%w: fasta record %q has no sequence", model.ErrInvalidInput, current.Header)
		}
		current.Sequence = seq.String()
		records = append(records, *current)
		seq.Reset()
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return nil, err
			}
			current = &FastaRecord{Header: strings.TrimSpace(line[1:])}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("%w: fasta sequence data before first header", model.ErrInvalidInput)
		}
		seq.WriteString(strings.Join(strings.Fields(line), ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fasta: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no fasta records found", model.ErrNoValidInput)
	}
	return records, nil
}

// WriteFasta writes sequences as records named seq_1, seq_2, ...
func WriteFasta(w io.Writer, sequences []string) error {
	for i, s := range sequences {
		if _, err := fmt.Fprintf(w, ">seq_%d\n%s\n", i+1, s); err != nil {
			return err
		}
	}
	return nil
}
