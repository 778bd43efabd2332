package main

import (
	"fmt"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/render"
	"github.com/sourceplane/foldbatch/internal/schema"
	"github.com/spf13/cobra"
)

var showJobs bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate job files against the job schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateFiles()
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Job JSON file or directory of job files")
	validateCmd.Flags().BoolVarP(&showJobs, "jobs", "j", false, "Print the jobs of every valid file")
	_ = validateCmd.MarkFlagRequired("input")
}

func validateFiles() error {
	paths, err := loader.ResolveInputs(inputPath, loader.JobExtensions)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}

	invalid := 0
	for _, path := range paths {
		fmt.Printf("□ Validating %s...\n", path)
		jobs, err := loader.LoadJobFile(path, validator, "")
		if err != nil {
			invalid++
			fmt.Printf("✗ %v\n", err)
			continue
		}
		fmt.Printf("✓ %d jobs\n", len(jobs))
		if showJobs {
			fmt.Println(render.ViewJobs(jobs))
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d job files are invalid", model.ErrInvalidInput, invalid, len(paths))
	}
	fmt.Println("✓ All validation passed")
	return nil
}
