package msa

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/shell"
)

// CommandSearcher runs an external alignment search tool. The command is a
// template receiving .Fasta, .OutDir and .PairingDB; the tool must leave one
// directory per input sequence at <OutDir>/msa/<n>, numbered from 1.
type CommandSearcher struct {
	command   string
	pairingDB string
	templates *shell.Templates
	log       logrus.FieldLogger
}

type searchVars struct {
	Fasta     string
	OutDir    string
	PairingDB string
}

// NewCommandSearcher creates a searcher for the given command template
func NewCommandSearcher(command, pairingDB string, log logrus.FieldLogger) (*CommandSearcher, error) {
	if command == "" {
		return nil, fmt.Errorf("alignment search command is not configured")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &CommandSearcher{
		command:   command,
		pairingDB: pairingDB,
		templates: shell.NewTemplates(),
		log:       log,
	}
	// fail on a bad template now rather than at the first job
	if _, err := s.templates.Render("msa-search", command, searchVars{}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CommandSearcher) Search(ctx context.Context, sequences []string, outDir string) ([]string, error) {
	if len(sequences) == 0 {
		return []string{}, nil
	}

	abs, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alignment directory: %w", err)
	}

	var fasta bytes.Buffer
	if err := WriteFasta(&fasta, sequences); err != nil {
		return nil, err
	}
	fastaPath := filepath.Join(abs, fmt.Sprintf("tmp_%s.fasta", model.NewID()[:16]))
	if err := loader.WriteFileAtomic(fastaPath, fasta.Bytes()); err != nil {
		return nil, err
	}

	line, err := s.templates.Render("msa-search", s.command, searchVars{
		Fasta:     fastaPath,
		OutDir:    abs,
		PairingDB: s.pairingDB,
	})
	if err != nil {
		return nil, err
	}

	out := s.log.WithField("step", "msa").WriterLevel(logrus.InfoLevel)
	defer out.Close()
	errOut := s.log.WithField("step", "msa").WriterLevel(logrus.WarnLevel)
	defer errOut.Close()

	cmd := &shell.Command{WorkDir: abs, Stdout: out, Stderr: errOut}
	if err := cmd.Run(ctx, line); err != nil {
		return nil, fmt.Errorf("alignment search: %w", err)
	}

	return collectResults(abs, len(sequences)), nil
}

// collectResults returns <dir>/msa/1..n, stopping at the first missing one
func collectResults(dir string, n int) []string {
	dirs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		d := filepath.Join(dir, "msa", strconv.Itoa(i))
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			break
		}
		dirs = append(dirs, d)
	}
	return dirs
}
