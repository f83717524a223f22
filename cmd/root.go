package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tabiya-tech/elicit/internal/adaptive"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
	"github.com/tabiya-tech/elicit/internal/session"
)

const (
	app = "elicit"
)

// Config is the runtime configuration for an elicitation session.
type Config struct {
	Temperature          float64                    `mapstructure:"temperature"`
	PriorMean            []float64                  `mapstructure:"prior-mean"`
	PriorVariance        float64                    `mapstructure:"prior-variance"`
	AttributesFile       string                     `mapstructure:"attributes-file"`
	ArtifactsDir         string                     `mapstructure:"artifacts-dir"`
	MaxAdaptive          int                        `mapstructure:"max-adaptive"`
	UseAdaptiveSelection bool                       `mapstructure:"use-adaptive-selection"`
	Stopping             *infotheory.StoppingConfig `mapstructure:"stopping"`
	Difficulty           *adaptive.Thresholds       `mapstructure:"difficulty"`
	Completion           *session.CompletionGate    `mapstructure:"completion"`
	Redis                *session.RedisConfig       `mapstructure:"redis"`
	RedisPasswordFile    string                     `mapstructure:"redis-password-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "elicit designs job-preference vignettes offline and runs adaptive Bayesian elicitation sessions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("redis-password-file", "ELICIT_REDIS_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding ELICIT_REDIS_PASSWORD_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is elicit.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for the session command; the generate command
	// takes everything from flags and the session can run on defaults.
	if sessionCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

// getConfig unmarshals the viper state and fills in the tuned defaults for
// everything the file leaves unset.
func getConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if config.Temperature <= 0 {
		config.Temperature = 1.0
	}
	if config.PriorVariance <= 0 {
		config.PriorVariance = 1.0
	}
	if config.PriorMean == nil {
		config.PriorMean = preference.ZeroWeights()
	}
	if config.ArtifactsDir == "" {
		config.ArtifactsDir = "design_output"
	}
	if config.MaxAdaptive == 0 {
		config.MaxAdaptive = 4
	}
	if config.Stopping == nil {
		defaults := infotheory.DefaultStoppingConfig()
		config.Stopping = &defaults
	}
	if config.Difficulty == nil {
		defaults := adaptive.DefaultThresholds()
		config.Difficulty = &defaults
	}
	if config.Completion == nil {
		config.Completion = &session.CompletionGate{
			MinVignettes:  config.Stopping.MinVignettes,
			MinCategories: 2,
			MaxVariance:   config.Stopping.MaxVarianceThreshold,
		}
	}

	return config, nil
}
