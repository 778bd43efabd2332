package expand

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChains() []model.ProteinChain {
	return []model.ProteinChain{
		{Sequence: "MKTAYIAK", Count: 2, MSA: model.MSARef{PrecomputedDir: "/msa/1", PairingDB: "uniref100"}},
		{Sequence: "GSHMLE", Count: 1},
	}
}

func testGroups() []model.LigandGroup {
	return []model.LigandGroup{
		{
			Name: "library",
			Kind: model.GroupSDF,
			Records: []model.LigandRecord{
				{Name: "library_part_0", File: "/stage/library_part_0.sdf", Valid: true},
				{Name: "library_part_2", File: "/stage/library_part_2.sdf", Valid: true},
			},
		},
		{
			Name:    "hits",
			Kind:    model.GroupSMI,
			Records: []model.LigandRecord{{Name: "hits_0", SMILES: "CCO", Valid: true}},
		},
	}
}

func TestExpand(t *testing.T) {
	jobDir := filepath.Join(t.TempDir(), "jsons")
	outDir := "/results"

	jobs, err := NewExpander(testChains(), jobDir, outDir).Expand(testGroups(), []int{101, 102})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	ids := map[string]bool{}
	for i, group := range testGroups() {
		job := jobs[i]
		assert.Equal(t, group.Name, job.Name)
		assert.Len(t, job.ID, 32)
		assert.False(t, ids[job.ID], "job ids must be unique")
		ids[job.ID] = true

		require.Len(t, job.Chains, len(testChains())+len(group.Records))
		assert.Equal(t, "MKTAYIAK", job.Chains[0].Protein.Sequence)
		assert.Equal(t, 2, job.Chains[0].Protein.Count)
		assert.Equal(t, "/msa/1", job.Chains[0].Protein.MSA.PrecomputedDir)
		assert.Nil(t, job.Chains[1].Protein.MSA)
		for j, rec := range group.Records {
			lig := job.Chains[len(testChains())+j].Ligand
			require.NotNil(t, lig)
			assert.Equal(t, rec.Identifier(), lig.Ligand)
			assert.Equal(t, 1, lig.Count)
		}

		assert.Equal(t, filepath.Join(outDir, group.Name+"_"+job.ID), job.OutputPath)
		assert.Equal(t, []int{101, 102}, job.Seeds)

		assert.Equal(t, filepath.Join(jobDir, group.Name+"_"+group.Kind+"_"+job.ID+".json"), job.SourcePath)
		reloaded, err := loader.LoadJobFile(job.SourcePath, nil, "")
		require.NoError(t, err)
		require.Len(t, reloaded, 1)
		assert.Equal(t, job.Name, reloaded[0].Name)
		assert.Equal(t, job.Chains, reloaded[0].Chains)
	}
	assert.Equal(t, "FILE_/stage/library_part_0.sdf", jobs[0].Chains[2].Ligand.Ligand)
	assert.Equal(t, "CCO", jobs[1].Chains[2].Ligand.Ligand)
}

func TestExpandEmptyInputs(t *testing.T) {
	t.Run("no chains", func(t *testing.T) {
		_, err := NewExpander(nil, t.TempDir(), "").Expand(testGroups(), nil)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("no groups", func(t *testing.T) {
		jobs, err := NewExpander(testChains(), t.TempDir(), "").Expand(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})
}

func TestExpandWriteFailureReturnsPartialJobs(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	jobs, err := NewExpander(testChains(), blocker, "").Expand(testGroups(), nil)
	require.Error(t, err)
	assert.Empty(t, jobs)
	assert.True(t, strings.Contains(err.Error(), "library"))
}

func TestStaging(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	s := NewStaging(root, "abc", now)
	assert.Equal(t, filepath.Join(root, "2026-03-09", "abc"), s.RecordDir)
	assert.Equal(t, filepath.Join(root, "2026-03-09", "abc_jsons"), s.JobDir)

	require.NoError(t, s.Create())
	for _, dir := range []string{s.RecordDir, s.JobDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
