package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/schema"
)

// LoadJobFile loads every job of a job file. Each document receives a fresh
// id; outDir, when set, becomes the parent of each job's output path.
// SourcePath is only set when the file holds a single job.
func LoadJobFile(path string, validator *schema.Validator, outDir string) ([]*model.JobDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	if validator != nil {
		if err := validator.ValidateJobFile(data); err != nil {
			return nil, fmt.Errorf("%w: job file %s: %v", model.ErrInvalidInput, path, err)
		}
	}

	docs, err := model.UnmarshalJobFile(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrInvalidInput, path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: job file %s contains no jobs", model.ErrInvalidInput, path)
	}

	jobs := make([]*model.JobDescriptor, 0, len(docs))
	for _, doc := range docs {
		id := model.NewID()
		job := &model.JobDescriptor{
			ID:     id,
			Name:   doc.Name,
			Chains: doc.Sequences,
			Seeds:  doc.ModelSeeds,
			Extra:  doc.Extra,
		}
		// a file with several jobs is never handed to the engine as is
		if len(docs) == 1 {
			job.SourcePath = path
		}
		if outDir != "" {
			job.OutputPath = OutputPath(outDir, doc.Name, id)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// WriteJobFile persists jobs atomically (write to a temp file, then rename)
func WriteJobFile(path string, jobs ...*model.JobDescriptor) error {
	data, err := model.MarshalJobFile(jobs...)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic creates parent directories and replaces path atomically
func WriteFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// OutputPath is the per-job result directory under outDir
func OutputPath(outDir, name, id string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s_%s", name, id))
}
