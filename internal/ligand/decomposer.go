package ligand

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
)

// Decomposer splits ligand files into validated ligand groups. Invalid
// records never abort decomposition; they are returned as failures.
type Decomposer struct {
	parser     Parser
	stagingDir string
	log        logrus.FieldLogger
}

// NewDecomposer creates a decomposer that writes split records under stagingDir
func NewDecomposer(parser Parser, stagingDir string, log logrus.FieldLogger) *Decomposer {
	if parser == nil {
		parser = ConnectivityParser{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Decomposer{
		parser:     parser,
		stagingDir: stagingDir,
		log:        log,
	}
}

// DecomposeAll decomposes every file in order and logs one aggregated
// warning for the rejected records.
func (d *Decomposer) DecomposeAll(paths []string) ([]model.LigandGroup, []model.RecordFailure) {
	groups := make([]model.LigandGroup, 0, len(paths))
	failures := make([]model.RecordFailure, 0)

	for _, path := range paths {
		g, f := d.Decompose(path)
		groups = append(groups, g...)
		failures = append(failures, f...)
	}

	if len(failures) > 0 {
		d.log.Warnf("%d ligand records are invalid, one of them is %s", len(failures), failures[0].Path)
	}
	return groups, failures
}

// Decompose turns one ligand file into at most one group
func (d *Decomposer) Decompose(path string) ([]model.LigandGroup, []model.RecordFailure) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".smi":
		return d.decomposeSMILES(path)
	case ".sdf":
		return d.decomposeSDF(path)
	default:
		return d.decomposeSingle(path, model.GroupFile)
	}
}

func (d *Decomposer) decomposeSMILES(path string) ([]model.LigandGroup, []model.RecordFailure) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []model.RecordFailure{failure(path, err)}
	}

	stem := loader.Stem(path)
	group := model.LigandGroup{Name: stem, Source: path, Kind: model.GroupSMI}
	for i, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		// "SMILES [title]" lines: the title, if any, names the record
		name := fmt.Sprintf("%s_%d", stem, i)
		if len(fields) > 1 {
			name = fields[1]
		}
		group.Records = append(group.Records, model.LigandRecord{
			Name:   name,
			Source: path,
			SMILES: fields[0],
			Valid:  true,
		})
	}

	if len(group.Records) == 0 {
		return nil, []model.RecordFailure{failure(path, fmt.Errorf("no SMILES strings found"))}
	}
	return []model.LigandGroup{group}, nil
}

func (d *Decomposer) decomposeSDF(path string) ([]model.LigandGroup, []model.RecordFailure) {
	records, err := ReadSDF(path)
	if err != nil {
		return nil, []model.RecordFailure{failure(path, err)}
	}
	if len(records) <= 1 {
		return d.decomposeSingle(path, model.GroupSDF)
	}

	stem := loader.Stem(path)
	// one directory per source file, two sources may share a basename
	splitDir := filepath.Join(d.stagingDir, model.NewID()[:12])

	group := model.LigandGroup{Name: stem, Source: path, Kind: model.GroupSDF}
	failures := make([]model.RecordFailure, 0)

	for idx, record := range records {
		partPath := filepath.Join(splitDir, fmt.Sprintf("%s_part_%d.sdf", stem, idx))
		if err := loader.WriteFileAtomic(partPath, record); err != nil {
			failures = append(failures, failure(partPath, err))
			continue
		}

		rec := model.LigandRecord{
			Name:   loader.Stem(partPath),
			Source: path,
			File:   partPath,
		}
		if err := d.validate(partPath); err != nil {
			rec.Err = err
			failures = append(failures, failure(partPath, err))
			d.log.WithField("file", partPath).Infof("ligand record rejected: %v", err)
			continue
		}
		rec.Valid = true
		group.Records = append(group.Records, rec)
	}

	if len(group.Records) == 0 {
		return nil, failures
	}
	return []model.LigandGroup{group}, failures
}

func (d *Decomposer) decomposeSingle(path, kind string) ([]model.LigandGroup, []model.RecordFailure) {
	if err := d.validate(path); err != nil {
		d.log.WithField("file", path).Infof("ligand record rejected: %v", err)
		return nil, []model.RecordFailure{failure(path, err)}
	}

	stem := loader.Stem(path)
	return []model.LigandGroup{{
		Name:   stem,
		Source: path,
		Kind:   kind,
		Records: []model.LigandRecord{{
			Name:   stem,
			Source: path,
			File:   path,
			Valid:  true,
		}},
	}}, nil
}

// validate runs the parser, converting panics into errors
func (d *Decomposer) validate(path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ligand parser panicked: %v", r)
		}
	}()
	_, err = d.parser.ParseFile(path)
	return err
}

func failure(path string, err error) model.RecordFailure {
	return model.RecordFailure{Path: path, Message: err.Error()}
}
