package render

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *model.BatchRunReport {
	report := model.NewBatchRunReport("batch-1")
	report.StartedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report.Record(model.JobResult{JobID: "a"})
	report.Record(model.JobResult{JobID: "b", Err: errors.New("missing alignment:\njob two")})
	report.InvalidLigands = []model.RecordFailure{{Path: "/stage/x_part_1.sdf", Message: "no atoms found"}}
	report.FinishedAt = report.StartedAt.Add(90 * time.Second)
	return report
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer()

	jsonPath := filepath.Join(dir, "reports", "run.json")
	require.NoError(t, r.WriteReport(sampleReport(), jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded model.BatchRunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded.Submitted)
	assert.Equal(t, "b", decoded.Failures[0].JobID)

	yamlPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, r.WriteReport(sampleReport(), yamlPath))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)

	var fromYAML map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, "batch-1", fromYAML["batchId"])
	assert.Equal(t, 1, fromYAML["succeeded"])
}

func TestDebugDump(t *testing.T) {
	out := NewRenderer().DebugDump(sampleReport())
	assert.Contains(t, out, "Submitted: 2")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Duration: 1m30s")
}

func TestViewSummary(t *testing.T) {
	out := NewReportViewer(sampleReport()).ViewSummary()
	assert.Contains(t, out, "2 submitted, 1 succeeded, 1 failed")
	assert.Contains(t, out, "└─ ✗ b: missing alignment: job two")
	assert.Contains(t, out, "└─ /stage/x_part_1.sdf: no atoms found")
}

func TestViewJobs(t *testing.T) {
	assert.Equal(t, "No jobs", ViewJobs(nil))

	jobs := []*model.JobDescriptor{
		{
			Name:  "lig1",
			Seeds: []int{101},
			Chains: []model.ChainEntry{
				model.NewProteinEntry(model.ProteinChain{Sequence: "MKTAYIAK", Count: 2, MSA: model.MSARef{PrecomputedDir: "/msa/1"}}),
				model.NewLigandEntry(model.LigandRecord{SMILES: "CCO"}),
			},
		},
		{
			Name:   "lig2",
			Chains: []model.ChainEntry{{Raw: json.RawMessage(`{"ion":{"ion":"MG","count":1}}`)}},
		},
	}

	out := ViewJobs(jobs)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "├─ lig1 (seeds:[101])", lines[0])
	assert.Equal(t, "│  ├─ protein MKTAYIAK ×2 [msa: /msa/1]", lines[1])
	assert.Equal(t, "│  └─ ligand CCO ×1", lines[2])
	assert.Equal(t, "└─ lig2", lines[3])
	assert.Equal(t, "   └─ ion", lines[4])
	assert.Contains(t, out, "Summary: 2 jobs")
}
