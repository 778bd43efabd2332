package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
)

const maxNameLength = 20

// Converter turns experimental structure files into job files
type Converter struct {
	outDir string
	altloc string
	log    logrus.FieldLogger
}

// NewConverter creates a converter writing job files to outDir. altloc is
// "first" or a single alternate location letter.
func NewConverter(outDir, altloc string, log logrus.FieldLogger) (*Converter, error) {
	if altloc == "" {
		altloc = AltLocFirst
	}
	if altloc != AltLocFirst && len(altloc) != 1 {
		return nil, fmt.Errorf("%w: altloc must be %q or a single letter, got %q", model.ErrInvalidInput, AltLocFirst, altloc)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Converter{outDir: outDir, altloc: altloc, log: log}, nil
}

// ConvertAll converts every file in order. A file that fails is logged and
// skipped; an error is returned only if nothing could be converted.
func (c *Converter) ConvertAll(paths []string) ([]string, error) {
	outputs := make([]string, 0, len(paths))
	for _, path := range paths {
		out, err := c.Convert(path)
		if err != nil {
			c.log.WithField("file", path).Errorf("failed to convert structure: %v", err)
			continue
		}
		outputs = append(outputs, out)
	}

	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no structure file could be converted", model.ErrNoValidInput)
	}
	c.log.Infof("%d generated jsons have been saved to %s", len(outputs), c.outDir)
	return outputs, nil
}

// Convert writes one job file for path and returns its location
func (c *Converter) Convert(path string) (string, error) {
	reader, err := c.reader(path)
	if err != nil {
		return "", err
	}
	structure, err := reader.Read(path)
	if err != nil {
		return "", err
	}

	chains, err := structure.Chains()
	if err != nil {
		return "", err
	}

	name := JobName(path)
	id := model.NewID()
	job := &model.JobDescriptor{ID: id, Name: name, Chains: chains}

	out := filepath.Join(c.outDir, fmt.Sprintf("%s-%s.json", name, id))
	if err := loader.WriteJobFile(out, job); err != nil {
		return "", err
	}
	c.log.WithFields(logrus.Fields{"file": path, "chains": len(chains)}).Debug("structure converted")
	return out, nil
}

func (c *Converter) reader(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdb":
		return PDBReader{AltLoc: c.altloc}, nil
	case ".cif":
		return CIFReader{AltLoc: c.altloc}, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a .pdb or .cif file", model.ErrUnsupportedFormat, path)
	}
}

// JobName is the file name without its extension, cut to 20 characters
func JobName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if len(stem) > maxNameLength {
		stem = stem[:maxNameLength]
	}
	return stem
}
