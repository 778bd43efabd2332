package normalize

import (
	"testing"

	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChains(t *testing.T) {
	chains, dups, err := Chains([]model.ProteinChain{
		{Sequence: " MGHH HH\n", MSA: model.MSARef{PrecomputedDir: "/msa/1"}},
		{Sequence: "MAEV", Count: 3},
		{Sequence: "MGHHHH", Count: 2},
	})
	require.NoError(t, err)

	require.Len(t, chains, 2)
	assert.Equal(t, "MGHHHH", chains[0].Sequence)
	assert.Equal(t, 1, chains[0].Count)
	assert.Equal(t, "uniref100", chains[0].MSA.PairingDB)
	assert.Equal(t, "MAEV", chains[1].Sequence)
	assert.Equal(t, 3, chains[1].Count)
	assert.True(t, chains[1].MSA.IsEmpty())
	assert.Equal(t, []string{"MGHHHH"}, dups)
}

func TestChainsErrors(t *testing.T) {
	_, _, err := Chains(nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, _, err = Chains([]model.ProteinChain{{Sequence: "  "}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, _, err = Chains([]model.ProteinChain{{Sequence: "MK", Count: -1}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
