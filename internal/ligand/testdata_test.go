package ligand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const ethanolMol = `ethanol
  foldbatch

  3  2  0  0  0  0  0  0  0  0999 V2000
   -0.8883    0.1670    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    0.4953   -0.4531    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.4185    0.5548    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  1  0
M  END
`

// broken declares a bond to an atom that does not exist
const brokenMol = `broken
  foldbatch

  2  1  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.0000    0.0000    0.0000 N   0  0  0  0  0  0  0  0  0  0  0  0
  1  5  1  0
M  END
`

const waterV3000 = `water
  foldbatch

  0  0  0     0  0            999 V3000
M  V30 BEGIN CTAB
M  V30 COUNTS 3 2 0 0 0
M  V30 BEGIN ATOM
M  V30 1 O 0.0000 0.0000 0.0000 0
M  V30 2 H 0.9572 0.0000 0.0000 0
M  V30 3 H -0.2400 0.9266 0.0000 0
M  V30 END ATOM
M  V30 BEGIN BOND
M  V30 1 1 1 2
M  V30 2 1 1 3
M  V30 END BOND
M  V30 END CTAB
M  END
`

const methanolMol2 = `@<TRIPOS>MOLECULE
methanol
 2 1 0 0 0
SMALL
NO_CHARGES

@<TRIPOS>ATOM
      1 C1          0.0000    0.0000    0.0000 C.3     1  MOL       0.0000
      2 O1          1.4300    0.0000    0.0000 O.3     1  MOL       0.0000
@<TRIPOS>BOND
     1     1     2    1
`

func sdfRecord(mol string) string {
	return mol + "$$$$\n"
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
