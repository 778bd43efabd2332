package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/config"
	"github.com/sourceplane/foldbatch/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	logLevel   string
	logFile    string
	reportFile string
	inputPath  string
	outDir     string
	seeds      []int
	useMSA     bool
)

var (
	cfg       config.Config
	log       *logrus.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "foldbatch",
	Short: "Batch structure prediction: proteins × ligands → predictions",
	Long: "foldbatch synthesizes one prediction job per protein/ligand combination, " +
		"checks alignment completeness and runs every job against one loaded prediction engine",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with environment overrides (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace/debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this rotating file")
	rootCmd.PersistentFlags().StringVar(&reportFile, "report", "", "Write the batch report to this file (json/yaml)")

	registerPredictCommand(rootCmd)
	registerBatchCommand(rootCmd)
	registerToJSONCommand(rootCmd)
	registerMSACommand(rootCmd)
	registerValidateCommand(rootCmd)
}

// setup loads the configuration, applies flag overrides and creates the logger
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(config.LoadOptions{File: configFile, EnvFile: envFile})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if logFile != "" {
		loaded.Log.File = logFile
	}
	if flags.Lookup("seeds") != nil && flags.Changed("seeds") {
		loaded.Engine.Seeds = seeds
	}
	if flags.Lookup("use_msa_server") != nil && flags.Changed("use_msa_server") {
		loaded.Engine.AllowSearch = useMSA
	}

	if err := loaded.Validate(); err != nil {
		return err
	}

	log, logCloser, err = logger.New(loaded.Log)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// addInputFlags registers the --input/--out_dir pair shared by most commands
func addInputFlags(cmd *cobra.Command, inputHelp string) {
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", inputHelp)
	cmd.Flags().StringVarP(&outDir, "out_dir", "o", "./output", "Output directory")
	_ = cmd.MarkFlagRequired("input")
}

// addEngineFlags registers the prediction flags shared by predict and batch
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&seeds, "seeds", []int{101}, "Model seeds, comma separated")
	cmd.Flags().BoolVar(&useMSA, "use_msa_server", false, "Search alignments for protein chains without precomputed MSA")
}
