package expand

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Staging is the batch-scoped scratch layout:
//
//	<root>/<YYYY-MM-DD>/<batch id>        split ligand records
//	<root>/<YYYY-MM-DD>/<batch id>_jsons  persisted job descriptors
type Staging struct {
	RecordDir string
	JobDir    string
}

// NewStaging computes the layout for a batch started at now
func NewStaging(root, batchID string, now time.Time) Staging {
	day := filepath.Join(root, now.Format("2006-01-02"))
	return Staging{
		RecordDir: filepath.Join(day, batchID),
		JobDir:    filepath.Join(day, batchID+"_jsons"),
	}
}

// Create makes both staging directories
func (s Staging) Create() error {
	for _, dir := range []string{s.RecordDir, s.JobDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create staging directory %s: %w", dir, err)
		}
	}
	return nil
}
