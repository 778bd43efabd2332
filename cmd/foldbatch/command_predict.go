package main

import (
	"fmt"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run predictions for job files",
	Long:  "Run one prediction per job found in a job JSON file or in every .json file under a directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPredict(cmd)
	},
}

func registerPredictCommand(root *cobra.Command) {
	root.AddCommand(predictCmd)

	addInputFlags(predictCmd, "Job JSON file or directory of job files")
	addEngineFlags(predictCmd)
}

func runPredict(cmd *cobra.Command) error {
	fmt.Println("□ Resolving job files...")
	paths, err := loader.ResolveInputs(inputPath, loader.JobExtensions)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}
	if len(paths) == 1 {
		if err := loader.RequireExtension(paths[0], loader.JobExtensions); err != nil {
			return err
		}
	}

	r, cleanup, err := newRunner(cmd.Context(), outDir)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("□ Running %d job files...\n", len(paths))
	report, err := r.ExecuteFiles(cmd.Context(), paths, outDir)
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
