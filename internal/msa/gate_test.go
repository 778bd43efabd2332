package msa_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/msa"
	"github.com/sourceplane/foldbatch/internal/msa/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protein(seq, dir string) model.ChainEntry {
	return model.NewProteinEntry(model.ProteinChain{Sequence: seq, MSA: model.MSARef{PrecomputedDir: dir}})
}

func ligand(smiles string) model.ChainEntry {
	return model.NewLigandEntry(model.LigandRecord{SMILES: smiles})
}

func newJob(chains ...model.ChainEntry) *model.JobDescriptor {
	return &model.JobDescriptor{ID: model.NewID(), Name: "job", Chains: chains}
}

func TestHasMSA(t *testing.T) {
	assert.True(t, msa.HasMSA(newJob(protein("AAA", "/a"), ligand("CCO"))))
	assert.False(t, msa.HasMSA(newJob(protein("AAA", "/a"), protein("CCC", ""))))
	assert.True(t, msa.HasMSA(newJob(ligand("CCO"))), "no protein chains means nothing is missing")
}

func TestMissingSequences(t *testing.T) {
	job := newJob(protein("CCC", ""), protein("AAA", ""), protein("CCC", ""), protein("GGG", "/g"))
	assert.Equal(t, []string{"AAA", "CCC"}, msa.MissingSequences(job))
}

func TestGateCompleteJobNeverSearches(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	log, _ := test.NewNullLogger()
	gate := msa.NewGate(searcher, t.TempDir(), "uniref100", true, log)

	job := newJob(protein("AAA", "/a"), ligand("CCO"))
	got, err := gate.Check(context.Background(), job, true)
	require.NoError(t, err)
	assert.Same(t, job, got)
}

func TestGateSearchDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)

	log, _ := test.NewNullLogger()
	gate := msa.NewGate(searcher, t.TempDir(), "uniref100", false, log)

	_, err := gate.Check(context.Background(), newJob(protein("AAA", "")), false)
	assert.ErrorIs(t, err, model.ErrMissingAlignment)
}

func TestGateEnrichesMissingChains(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)

	dir := t.TempDir()
	resultDir := filepath.Join(dir, "results")
	source := filepath.Join(dir, "job.json")

	job := newJob(protein("CCC", ""), protein("AAA", "/a-existing"), protein("CCC", ""), ligand("CCO"))
	require.NoError(t, loader.WriteJobFile(source, job))
	job.SourcePath = source

	searcher.EXPECT().
		Search(gomock.Any(), []string{"CCC"}, filepath.Join(resultDir, job.ID)).
		Return([]string{"/msa/ccc"}, nil)

	log, _ := test.NewNullLogger()
	gate := msa.NewGate(searcher, resultDir, "uniref100", true, log)

	got, err := gate.Check(context.Background(), job, true)
	require.NoError(t, err)
	assert.NotSame(t, job, got)
	assert.True(t, msa.HasMSA(got))
	assert.False(t, msa.HasMSA(job), "input job must not be modified")

	proteins := got.ProteinEntries()
	assert.Equal(t, &model.MSARef{PrecomputedDir: "/msa/ccc", PairingDB: "uniref100"}, proteins[0].MSA)
	assert.Equal(t, "/a-existing", proteins[1].MSA.PrecomputedDir)
	assert.Equal(t, "/msa/ccc", proteins[2].MSA.PrecomputedDir)

	assert.Equal(t, filepath.Join(dir, "job-add-msa.json"), got.SourcePath)
	persisted, err := loader.LoadJobFile(got.SourcePath, nil, "")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, got.Chains, persisted[0].Chains)

	_, err = os.Stat(source)
	assert.NoError(t, err, "source job file is kept")
}

func TestGateKeepsUninterpretedFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), []string{"MKV"}, gomock.Any()).Return([]string{"/msa/mkv"}, nil)

	dir := t.TempDir()
	source := filepath.Join(dir, "bonded.json")
	require.NoError(t, os.WriteFile(source, []byte(`[{
		"name": "bonded",
		"covalent_bonds": [{"left_entity": 1, "right_entity": 2}],
		"sequences": [
			{"proteinChain": {"sequence": "MKV", "count": 1, "modifications": [{"ptmType": "CCD_SEP", "ptmPosition": 2}]}},
			{"ligand": {"ligand": "CCD_ATP", "count": 1, "note": "cofactor"}}
		]
	}]`), 0644))

	jobs, err := loader.LoadJobFile(source, nil, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	log, _ := test.NewNullLogger()
	got, err := msa.NewGate(searcher, filepath.Join(dir, "results"), "uniref100", true, log).Check(context.Background(), jobs[0], true)
	require.NoError(t, err)

	data, err := os.ReadFile(got.SourcePath)
	require.NoError(t, err)
	var written []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, 1)

	assert.Contains(t, written[0], "covalent_bonds")
	sequences := written[0]["sequences"].([]interface{})
	proteinChain := sequences[0].(map[string]interface{})["proteinChain"].(map[string]interface{})
	assert.Contains(t, proteinChain, "modifications")
	assert.Equal(t, "/msa/mkv", proteinChain["msa"].(map[string]interface{})["precomputed_msa_dir"])
	ligandChain := sequences[1].(map[string]interface{})["ligand"].(map[string]interface{})
	assert.Equal(t, "cofactor", ligandChain["note"])
}

func TestGateDoesNotPersistJobsOfMultiJobFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]string{"/msa/1"}, nil).Times(2)

	dir := t.TempDir()
	source := filepath.Join(dir, "two.json")
	require.NoError(t, os.WriteFile(source, []byte(`[
		{"name": "a", "sequences": [{"proteinChain": {"sequence": "MKV", "count": 1}}]},
		{"name": "b", "sequences": [{"proteinChain": {"sequence": "MGS", "count": 1}}]}
	]`), 0644))

	jobs, err := loader.LoadJobFile(source, nil, "")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	log, _ := test.NewNullLogger()
	gate := msa.NewGate(searcher, filepath.Join(dir, "results"), "uniref100", true, log)
	for _, job := range jobs {
		got, err := gate.Check(context.Background(), job, true)
		require.NoError(t, err)
		assert.True(t, msa.HasMSA(got))
		assert.Empty(t, got.SourcePath)
	}
	assert.NoFileExists(t, msa.EnrichedPath(source))
}

func TestGateSearchFailures(t *testing.T) {
	tests := []struct {
		name    string
		dirs    []string
		err     error
		wantErr error
	}{
		{name: "count mismatch", dirs: []string{"/msa/1"}, wantErr: model.ErrSearchMismatch},
		{name: "empty directory returned", dirs: []string{"/msa/1", ""}, wantErr: model.ErrMissingAlignment},
		{name: "searcher error", err: errors.New("server unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			searcher := mocks.NewMockSearcher(ctrl)
			searcher.EXPECT().Search(gomock.Any(), []string{"AAA", "CCC"}, gomock.Any()).Return(tt.dirs, tt.err)

			log, _ := test.NewNullLogger()
			gate := msa.NewGate(searcher, t.TempDir(), "uniref100", false, log)

			got, err := gate.Check(context.Background(), newJob(protein("CCC", ""), protein("AAA", "")), true)
			require.Error(t, err)
			assert.Nil(t, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestEnrichedPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/jobs", "a.b-add-msa.json"), msa.EnrichedPath("/jobs/a.b.json"))
}
