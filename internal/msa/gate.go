package msa

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
)

//go:generate mockgen -destination=mocks/searcher_mock.go -package=mocks github.com/sourceplane/foldbatch/internal/msa Searcher

// Searcher computes alignments for protein sequences. It returns one
// alignment directory per sequence, in input order.
type Searcher interface {
	Search(ctx context.Context, sequences []string, outDir string) ([]string, error)
}

// Gate makes sure every protein chain of a job carries alignment data
// before prediction, running a search for the missing ones when allowed.
type Gate struct {
	searcher  Searcher
	resultDir string
	pairingDB string
	persist   bool
	log       logrus.FieldLogger
}

// NewGate creates a gate. Search results are placed under resultDir/<job id>;
// persist writes the enriched descriptor next to the job's source file. Jobs
// without a source file, such as those of a multi-job file, are not persisted.
func NewGate(searcher Searcher, resultDir, pairingDB string, persist bool, log logrus.FieldLogger) *Gate {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Gate{
		searcher:  searcher,
		resultDir: resultDir,
		pairingDB: pairingDB,
		persist:   persist,
		log:       log,
	}
}

// HasMSA reports whether every protein chain of job has alignment data
func HasMSA(job *model.JobDescriptor) bool {
	for _, p := range job.ProteinEntries() {
		if !p.HasMSA() {
			return false
		}
	}
	return true
}

// MissingSequences returns the distinct sequences lacking alignment data, sorted
func MissingSequences(job *model.JobDescriptor) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range job.ProteinEntries() {
		if p.HasMSA() || seen[p.Sequence] {
			continue
		}
		seen[p.Sequence] = true
		out = append(out, p.Sequence)
	}
	sort.Strings(out)
	return out
}

// Check returns job unchanged when it is complete. Otherwise, if search is
// allowed, it returns an enriched copy; the input job is never modified.
func (g *Gate) Check(ctx context.Context, job *model.JobDescriptor, allowSearch bool) (*model.JobDescriptor, error) {
	if HasMSA(job) {
		return job, nil
	}
	if !allowSearch || g.searcher == nil {
		return nil, fmt.Errorf("%w: job %s has protein chains without precomputed alignments and alignment search is disabled",
			model.ErrMissingAlignment, job.Name)
	}

	missing := MissingSequences(job)
	outDir := filepath.Join(g.resultDir, job.ID)
	g.log.WithFields(logrus.Fields{"job": job.Name, "sequences": len(missing)}).Info("searching alignments")

	dirs, err := g.searcher.Search(ctx, missing, outDir)
	if err != nil {
		return nil, fmt.Errorf("alignment search for job %s failed: %w", job.Name, err)
	}
	if len(dirs) != len(missing) {
		return nil, fmt.Errorf("%w: job %s submitted %d sequences, got %d alignments",
			model.ErrSearchMismatch, job.Name, len(missing), len(dirs))
	}

	found := make(map[string]string, len(missing))
	for i, seq := range missing {
		found[seq] = dirs[i]
	}

	enriched := job.Clone()
	for _, p := range enriched.ProteinEntries() {
		if p.HasMSA() {
			continue
		}
		if dir, ok := found[p.Sequence]; ok && dir != "" {
			p.MSA = &model.MSARef{PrecomputedDir: dir, PairingDB: g.pairingDB}
		}
	}
	if !HasMSA(enriched) {
		return nil, fmt.Errorf("%w: job %s is still incomplete after alignment search", model.ErrMissingAlignment, job.Name)
	}

	if g.persist && job.SourcePath != "" {
		path := EnrichedPath(job.SourcePath)
		if err := loader.WriteJobFile(path, enriched); err != nil {
			return nil, err
		}
		enriched.SourcePath = path
		g.log.WithField("job", job.Name).Infof("wrote enriched job file %s", path)
	}
	return enriched, nil
}

// EnrichedPath is where the enriched copy of a job file is written
func EnrichedPath(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(filepath.Dir(source), base+"-add-msa.json")
}
