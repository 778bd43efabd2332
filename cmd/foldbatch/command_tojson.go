package main

import (
	"fmt"

	"github.com/sourceplane/foldbatch/internal/convert"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/spf13/cobra"
)

var altloc string

var toJSONCmd = &cobra.Command{
	Use:   "tojson",
	Short: "Convert PDB or mmCIF files to job files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToJSON()
	},
}

func registerToJSONCommand(root *cobra.Command) {
	root.AddCommand(toJSONCmd)

	addInputFlags(toJSONCmd, "PDB/mmCIF file or directory")
	toJSONCmd.Flags().StringVar(&altloc, "altloc", convert.AltLocFirst, "Alternate location to keep: 'first' or a letter")
}

func runToJSON() error {
	fmt.Println("□ Resolving structure files...")
	paths, err := loader.ResolveInputs(inputPath, loader.StructureExtensions)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}
	if len(paths) == 1 {
		if err := loader.RequireExtension(paths[0], loader.StructureExtensions); err != nil {
			return err
		}
	}

	converter, err := convert.NewConverter(outDir, altloc, log)
	if err != nil {
		return err
	}

	fmt.Printf("□ Converting %d structures...\n", len(paths))
	outputs, err := converter.ConvertAll(paths)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %d job files generated\n", len(outputs))
	fmt.Printf("✓ Saved to: %s\n", outDir)
	return nil
}
