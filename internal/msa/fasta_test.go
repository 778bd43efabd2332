package msa

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFasta(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []FastaRecord
		wantErr error
	}{
		{
			name:  "multi-line records",
			input: ">sp|P1 first\nMKTA\nYIAK\n\n>second\nGSH MLE\n",
			want: []FastaRecord{
				{Header: "sp|P1 first", Sequence: "MKTAYIAK"},
				{Header: "second", Sequence: "GSHMLE"},
			},
		},
		{
			name:  "comments and CRLF",
			input: "; comment\r\n>a\r\nAAA\r\n",
			want:  []FastaRecord{{Header: "a", Sequence: "AAA"}},
		},
		{name: "sequence before header", input: "AAAA\n>a\nCC\n", wantErr: model.ErrInvalidInput},
		{name: "header without sequence", input: ">a\n>b\nCC\n", wantErr: model.ErrInvalidInput},
		{name: "empty", input: "\n", wantErr: model.ErrNoValidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFasta(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteFastaRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFasta(&buf, []string{"AAA", "CCC"}))
	assert.Equal(t, ">seq_1\nAAA\n>seq_2\nCCC\n", buf.String())

	records, err := ParseFasta(&buf)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadFastaMissing(t *testing.T) {
	_, err := ReadFasta(filepath.Join(t.TempDir(), "none.fasta"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}
