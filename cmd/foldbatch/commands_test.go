package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalPDB = `ATOM      1 CA   MET A   1       1.000   2.000   3.000  1.00 20.00           C
ATOM      2 CA   LYS A   2       1.000   2.000   3.000  1.00 20.00           C
END
`

func execute(t *testing.T, args ...string) error {
	t.Helper()
	base := []string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}
	rootCmd.SetArgs(append(args, base...))
	return rootCmd.Execute()
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good", "job.json"),
		`[{"name":"a","sequences":[{"proteinChain":{"sequence":"MK","count":1}}]}]`)
	writeFile(t, filepath.Join(dir, "bad", "job.json"), `[{"name":"a"}]`)

	assert.NoError(t, execute(t, "validate", "--input", good))
	assert.Error(t, execute(t, "validate", "--input", filepath.Join(dir, "bad")))
}

func TestToJSONCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "in", "1abc.pdb"), minimalPDB)
	out := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "tojson", "--input", input, "--out_dir", out))

	files, err := loader.ResolveInputs(out, loader.JobExtensions)
	require.NoError(t, err)
	require.Len(t, files, 1)

	jobs, err := loader.LoadJobFile(files[0], nil, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "MK", jobs[0].Chains[0].Protein.Sequence)
}

func TestToJSONCommandRejectsExtension(t *testing.T) {
	input := writeFile(t, filepath.Join(t.TempDir(), "model.txt"), minimalPDB)
	assert.Error(t, execute(t, "tojson", "--input", input, "--out_dir", t.TempDir()))
}

func TestMSACommandFasta(t *testing.T) {
	t.Setenv("FOLDBATCH_MSA_COMMAND", "mkdir -p {{.OutDir}}/msa/1 {{.OutDir}}/msa/2")
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "targets.fasta"), ">a\nMKV\n>b\nMGS\n>c\nMKV\n")
	out := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "msa", "--input", input, "--out_dir", out))

	chains, err := loader.LoadProteinChains(filepath.Join(out, "targets", msaMapFile))
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, "MGS", chains[0].Sequence, "sequences are searched in sorted order")
	assert.Equal(t, "MKV", chains[1].Sequence)
	assert.Equal(t, filepath.Join(out, "targets", "msa", "1"), chains[0].MSA.PrecomputedDir)
	assert.Equal(t, "uniref100", chains[0].MSA.PairingDB)
	assert.DirExists(t, chains[1].MSA.PrecomputedDir)
}

func TestMSACommandJobFile(t *testing.T) {
	t.Setenv("FOLDBATCH_MSA_COMMAND", "mkdir -p {{.OutDir}}/msa/1")
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "job.json"),
		`[{"name":"a","sequences":[{"proteinChain":{"sequence":"MK","count":1}},{"ligand":{"ligand":"CCO","count":1}}]}]`)

	require.NoError(t, execute(t, "msa", "--input", input, "--out_dir", filepath.Join(dir, "msa")))

	jobs, err := loader.LoadJobFile(filepath.Join(dir, "job-add-msa.json"), nil, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.True(t, jobs[0].Chains[0].Protein.HasMSA())
	assert.Equal(t, "CCO", jobs[0].Chains[1].Ligand.Ligand)
}

func TestMSACommandSkipsCompleteJobFile(t *testing.T) {
	t.Setenv("FOLDBATCH_MSA_COMMAND", "false")
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "job.json"),
		`[{"name":"a","sequences":[{"proteinChain":{"sequence":"MK","count":1,"msa":{"precomputed_msa_dir":"/m","pairing_db":"uniref100"}}}]}]`)

	require.NoError(t, execute(t, "msa", "--input", input, "--out_dir", dir))
	assert.NoFileExists(t, filepath.Join(dir, "job-add-msa.json"))
}
