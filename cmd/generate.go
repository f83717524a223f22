package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tabiya-tech/elicit/internal/design"
	"github.com/tabiya-tech/elicit/internal/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the offline design pipeline and write the vignette artifacts",
	Run: func(cmd *cobra.Command, _ []string) {
		generate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("output-dir", "o", "design_output", "directory for the generated artifacts")
	generateCmd.Flags().String("config", "", "attribute-definition JSON file. Default is the built-in grid.")
	generateCmd.Flags().Int("num-static", 8, "total number of static vignettes to select")
	generateCmd.Flags().Int("num-beginning", 4, "how many static vignettes open the session")
	generateCmd.Flags().Int("num-library", 20, "size of the adaptive vignette library")
	generateCmd.Flags().Float64("diversity-weight", 0.3, "blend between informativeness (0) and diversity (1)")
	generateCmd.Flags().Int("sample-size", 500, "candidate profile pairs sampled per selection step")
	generateCmd.Flags().String("log-file", "", "also write the run log to this file")
	generateCmd.Flags().Bool("apply-dominance", false, "drop globally dominated profiles before selection")
	generateCmd.Flags().Int("max-profiles", 1000, "cap on enumerated profiles, 0 for the full grid")
	generateCmd.Flags().Uint64("seed", 42, "random seed for pair sampling")
}

// generate is the offline entrypoint. Configuration errors fail loudly
// before any artifact is written.
func generate(cmd *cobra.Command) {
	flags := cmd.Flags()
	logFile, _ := flags.GetString("log-file")

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logFile)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	outputDir, _ := flags.GetString("output-dir")
	attrConfig, _ := flags.GetString("config")
	numStatic, _ := flags.GetInt("num-static")
	numBeginning, _ := flags.GetInt("num-beginning")
	numLibrary, _ := flags.GetInt("num-library")
	diversityWeight, _ := flags.GetFloat64("diversity-weight")
	sampleSize, _ := flags.GetInt("sample-size")
	applyDominance, _ := flags.GetBool("apply-dominance")
	maxProfiles, _ := flags.GetInt("max-profiles")
	seed, _ := flags.GetUint64("seed")

	cfg := &design.PipelineConfig{
		OutputDir:       outputDir,
		AttributeConfig: attrConfig,
		NumStatic:       numStatic,
		NumBeginning:    numBeginning,
		NumLibrary:      numLibrary,
		DiversityWeight: diversityWeight,
		SampleSize:      sampleSize,
		MaxProfiles:     maxProfiles,
		ApplyDominance:  applyDominance,
		Seed:            seed,
	}

	zlog.Info("starting the design pipeline",
		zap.String("version", version),
		zap.String("output_dir", outputDir),
	)

	if err := design.RunPipeline(cfg, zlog); err != nil {
		zlog.Fatal("design pipeline failed", zap.Error(err))
	}
}
