package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/msa"
	"github.com/spf13/cobra"
)

const msaMapFile = "msa_map.yaml"

var msaCmd = &cobra.Command{
	Use:   "msa",
	Short: "Search alignments for job files or FASTA files",
	Long: "For a job file, search alignments for protein chains without one and write <name>-add-msa.json. " +
		"For a FASTA file, search every sequence and write " + msaMapFile + " for use with 'batch --proteins'.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMSA(cmd.Context())
	},
}

func registerMSACommand(root *cobra.Command) {
	root.AddCommand(msaCmd)

	addInputFlags(msaCmd, "Job JSON or FASTA file, or a directory of them")
}

func runMSA(ctx context.Context) error {
	paths, err := loader.ResolveInputs(inputPath, loader.MSAInputExtensions)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}
	if len(paths) == 1 {
		if err := loader.RequireExtension(paths[0], loader.MSAInputExtensions); err != nil {
			return err
		}
	}

	searcher, err := newSearcher()
	if err != nil {
		return err
	}
	if searcher == nil {
		return fmt.Errorf("%w: msa.command is not configured", model.ErrInvalidInput)
	}

	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = enrichJobFile(ctx, searcher, path)
		} else {
			err = searchFasta(ctx, searcher, path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// enrichJobFile writes <name>-add-msa.json next to path with every job of
// the file complete. A file whose jobs are all complete is skipped.
func enrichJobFile(ctx context.Context, searcher msa.Searcher, path string) error {
	fmt.Printf("□ Loading %s...\n", path)
	jobs, err := loader.LoadJobFile(path, nil, "")
	if err != nil {
		return err
	}

	complete := true
	for _, job := range jobs {
		complete = complete && msa.HasMSA(job)
	}
	if complete {
		log.WithField("file", path).Warn("every protein chain already has an msa, skipping")
		return nil
	}

	gate := msa.NewGate(searcher, outDir, cfg.MSA.PairingDB, false, log)
	enriched := make([]*model.JobDescriptor, 0, len(jobs))
	for _, job := range jobs {
		out, err := gate.Check(ctx, job, true)
		if err != nil {
			return err
		}
		enriched = append(enriched, out)
	}

	target := msa.EnrichedPath(path)
	if err := loader.WriteJobFile(target, enriched...); err != nil {
		return err
	}
	fmt.Printf("✓ Saved to: %s\n", target)
	return nil
}

// searchFasta searches every distinct sequence of a FASTA file, in sorted
// order, and writes the sequence to alignment mapping into the output directory.
func searchFasta(ctx context.Context, searcher msa.Searcher, path string) error {
	fmt.Printf("□ Reading %s...\n", path)
	records, err := msa.ReadFasta(path)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	sequences := make([]string, 0, len(records))
	for _, rec := range records {
		if !seen[rec.Sequence] {
			seen[rec.Sequence] = true
			sequences = append(sequences, rec.Sequence)
		}
	}
	sort.Strings(sequences)

	resultDir := filepath.Join(outDir, loader.Stem(path))
	fmt.Printf("□ Searching alignments for %d sequences...\n", len(sequences))
	dirs, err := searcher.Search(ctx, sequences, resultDir)
	if err != nil {
		return fmt.Errorf("alignment search for %s failed: %w", path, err)
	}
	if len(dirs) != len(sequences) {
		return fmt.Errorf("%w: %s submitted %d sequences, got %d alignments",
			model.ErrSearchMismatch, path, len(sequences), len(dirs))
	}

	chains := make([]model.ProteinChain, 0, len(sequences))
	for i, seq := range sequences {
		chains = append(chains, model.ProteinChain{
			Sequence: seq,
			Count:    1,
			MSA:      model.MSARef{PrecomputedDir: dirs[i], PairingDB: cfg.MSA.PairingDB},
		})
	}

	target := filepath.Join(resultDir, msaMapFile)
	if err := loader.WriteProteinChains(target, chains); err != nil {
		return err
	}
	fmt.Printf("✓ Saved to: %s\n", target)
	return nil
}
