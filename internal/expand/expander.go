package expand

import (
	"fmt"
	"path/filepath"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
)

// Expander handles protein chains × ligand group expansion into jobs
type Expander struct {
	chains    []model.ProteinChain
	jobDir    string
	outputDir string
}

// NewExpander creates a new expander. Descriptors are persisted under jobDir
// and each job's results go to a directory under outputDir.
func NewExpander(chains []model.ProteinChain, jobDir, outputDir string) *Expander {
	return &Expander{
		chains:    chains,
		jobDir:    jobDir,
		outputDir: outputDir,
	}
}

// Expand produces one job per ligand group, in group order. Every job is
// persisted as soon as it is built; on a write failure the jobs built so far
// are returned with the error.
func (e *Expander) Expand(groups []model.LigandGroup, seeds []int) ([]*model.JobDescriptor, error) {
	if len(e.chains) == 0 {
		return nil, fmt.Errorf("%w: no protein chains to combine with ligands", model.ErrInvalidInput)
	}

	jobs := make([]*model.JobDescriptor, 0, len(groups))
	for _, group := range groups {
		job := e.buildJob(group, seeds)

		path := filepath.Join(e.jobDir, fmt.Sprintf("%s_%s_%s.json", job.Name, group.Kind, job.ID))
		if err := loader.WriteJobFile(path, job); err != nil {
			return jobs, fmt.Errorf("failed to persist job %s: %w", job.Name, err)
		}
		job.SourcePath = path

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// buildJob lays out the protein chains followed by one ligand chain per record
func (e *Expander) buildJob(group model.LigandGroup, seeds []int) *model.JobDescriptor {
	chains := make([]model.ChainEntry, 0, len(e.chains)+len(group.Records))
	for _, chain := range e.chains {
		chains = append(chains, model.NewProteinEntry(chain))
	}
	for _, record := range group.Records {
		chains = append(chains, model.NewLigandEntry(record))
	}

	id := model.NewID()
	job := &model.JobDescriptor{
		ID:     id,
		Name:   group.Name,
		Chains: chains,
	}
	if len(seeds) > 0 {
		job.Seeds = append([]int(nil), seeds...)
	}
	if e.outputDir != "" {
		job.OutputPath = loader.OutputPath(e.outputDir, group.Name, id)
	}
	return job
}
