package main

import (
	"fmt"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/spf13/cobra"
)

var (
	proteinsFile string
	ligandsPath  string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Predict every protein set against every ligand file",
	Long: "Combine the protein chains of a protein file with each ligand file (.sdf, .smi, .mol, .mol2) " +
		"under a path, one job per ligand file, and run all jobs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd)
	},
}

func registerBatchCommand(root *cobra.Command) {
	root.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&proteinsFile, "proteins", "p", "", "Protein sequences with their MSA directories (yaml or json)")
	batchCmd.Flags().StringVarP(&ligandsPath, "ligands", "l", "", "Ligand file or directory")
	batchCmd.Flags().StringVarP(&outDir, "out_dir", "o", "./output", "Output directory")
	_ = batchCmd.MarkFlagRequired("proteins")
	_ = batchCmd.MarkFlagRequired("ligands")
	addEngineFlags(batchCmd)
}

func runBatch(cmd *cobra.Command) error {
	fmt.Println("□ Loading protein chains...")
	chains, err := loader.LoadProteinChains(proteinsFile)
	if err != nil {
		return fmt.Errorf("failed to load proteins: %w", err)
	}

	r, cleanup, err := newRunner(cmd.Context(), outDir)
	if err != nil {
		return err
	}
	defer cleanup()

	var jobSeeds []int
	if cmd.Flags().Changed("seeds") {
		jobSeeds = seeds
	}

	fmt.Println("□ Decomposing ligands and synthesizing jobs...")
	report, err := r.Run(cmd.Context(), chains, ligandsPath, outDir, jobSeeds)
	if reportErr := finishReport(report); reportErr != nil {
		return reportErr
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ %d of %d jobs succeeded\n", report.Succeeded, report.Submitted)
	fmt.Printf("✓ Results in: %s\n", outDir)
	return nil
}
