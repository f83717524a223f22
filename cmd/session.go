package cmd

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tabiya-tech/elicit/internal/adaptive"
	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/design"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/logger"
	"github.com/tabiya-tech/elicit/internal/preference"
	"github.com/tabiya-tech/elicit/internal/secrets"
	"github.com/tabiya-tech/elicit/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run an interactive elicitation session in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runSession(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().String("session-id", "", "resume or name a session. Default is a fresh id.")
	sessionCmd.Flags().String("artifacts-dir", "", "directory holding the offline design artifacts")
	sessionCmd.Flags().Bool("adaptive", true, "use information-gain selection for the adaptive segment")

	viper.BindPFlag("artifacts-dir", sessionCmd.Flags().Lookup("artifacts-dir"))
}

// runSession drives one turn loop: show vignette, record the A/B choice,
// update the belief, persist, and stop when the criterion says so.
func runSession(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), "")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	artifacts, err := design.LoadArtifacts(config.ArtifactsDir)
	if err != nil {
		zlog.Fatal("loading design artifacts",
			zap.Error(err),
			zap.String("hint", "run 'elicit generate' first or point artifacts-dir at an existing design"),
		)
	}

	defs := preference.DefaultAttributes()
	if config.AttributesFile != "" {
		if defs, err = preference.LoadAttributes(config.AttributesFile); err != nil {
			zlog.Fatal("loading attribute definitions", zap.Error(err))
		}
	}

	encoder := preference.NewEncoder(defs)
	likelihood := bayes.NewLikelihoodCalculator(encoder, config.Temperature)
	fisher := infotheory.NewFisherCalculator(encoder, likelihood)
	manager := bayes.NewPosteriorManager(config.PriorMean, nil, nil, zlog)
	stopping := infotheory.NewStoppingCriterion(*config.Stopping)
	tuner := adaptive.NewDifficultyTuner(*config.Difficulty)
	selector := adaptive.NewSelector(fisher, zlog)
	sequencer := session.NewSequencer(artifacts, selector, config.MaxAdaptive)
	runner := session.NewRunner(likelihood, fisher, manager, stopping, sequencer, artifacts, zlog)

	store, err := prepareStore(config, zlog)
	if err != nil {
		zlog.Fatal("preparing the session store", zap.Error(err))
	}

	state := prepareState(ctx, cmd, config, store, zlog)
	slog := logger.WithFields(zlog, zap.String("session_id", state.SessionID))
	slog.Info("starting the session",
		zap.String("version", version),
		zap.Bool("adaptive", state.UseAdaptiveSelection),
	)

	for {
		cont, reason := runner.ShouldContinue(state)
		if !cont {
			slog.Info("stopping elicitation", zap.String("reason", reason))
			break
		}

		v := runner.NextVignette(state)
		if v == nil {
			slog.Info("stopping elicitation", zap.String("reason", "vignette progression exhausted"))
			break
		}
		slog.Debug("presenting vignette",
			zap.String("vignette_id", v.VignetteID),
			zap.String("category", v.Category),
			zap.String("scenario", logger.TruncateForLog(v.ScenarioText, 80)),
		)

		choice, err := askChoice(v)
		if err != nil {
			slog.Fatal("reading the choice", zap.Error(err))
		}

		if err := runner.RecordChoice(state, v, choice); err != nil {
			slog.Fatal("recording the choice", zap.Error(err))
		}
		if err := store.Save(ctx, state); err != nil {
			slog.Fatal("persisting the session", zap.Error(err))
		}

		rec := tuner.Recommend(state.Posterior)
		slog.Debug("turn complete",
			zap.Int("vignettes_shown", state.VignettesShown()),
			zap.String("recommendation", rec.Summary),
		)
	}

	finishSession(ctx, state, store, slog)
	printReport(state, tuner)
}

func prepareStore(config *Config, zlog *zap.Logger) (session.Store, error) {
	if config.Redis == nil || config.Redis.Addr == "" {
		zlog.Debug("no redis configured, keeping sessions in memory")
		return session.NewMemoryStore(), nil
	}

	redisCfg := *config.Redis
	if redisCfg.Password == "" && config.RedisPasswordFile != "" {
		password, err := secrets.Load(secrets.Source{
			Name: "redis password",
			File: config.RedisPasswordFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set redis-password-file or ELICIT_REDIS_PASSWORD_FILE)", err)
		}
		redisCfg.Password = password
	}

	return session.NewRedisStore(redisCfg), nil
}

// prepareState resumes a persisted session when an id is given and found,
// otherwise starts a fresh one and walks it to the vignette phase. The
// intro, experience and best-worst-scaling phases belong to the
// conversational layer, which this harness stands in for.
func prepareState(ctx context.Context, cmd *cobra.Command, config *Config, store session.Store, zlog *zap.Logger) *session.State {
	sessionID, _ := cmd.Flags().GetString("session-id")
	if sessionID != "" {
		if state, err := store.Load(ctx, sessionID); err == nil {
			zlog.Info("resuming session", zap.String("session_id", sessionID), zap.String("phase", string(state.Phase)))
			return state
		}
		zlog.Info("session not found, starting fresh", zap.String("session_id", sessionID))
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	useAdaptive, _ := cmd.Flags().GetBool("adaptive")
	if !cmd.Flags().Changed("adaptive") {
		useAdaptive = useAdaptive || config.UseAdaptiveSelection
	}

	prior := bayes.NewIsotropicPosterior(config.PriorMean, config.PriorVariance)
	state := session.NewState(sessionID, prior, useAdaptive)
	for _, phase := range []session.Phase{session.PhaseExperienceQuestions, session.PhaseBWS, session.PhaseVignettes} {
		if err := state.TransitionTo(phase); err != nil {
			zlog.Fatal("advancing to the vignette phase", zap.Error(err))
		}
	}
	return state
}

func askChoice(v *preference.Vignette) (string, error) {
	a := v.Option(preference.OptionA)
	b := v.Option(preference.OptionB)

	fmt.Println()
	fmt.Println(v.ScenarioText)

	prompt := promptui.Select{
		Label: "Which job would you prefer?",
		Items: []string{
			fmt.Sprintf("%s: %s", a.Title, a.Description),
			fmt.Sprintf("%s: %s", b.Title, b.Description),
		},
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	if idx == 1 {
		return preference.OptionB, nil
	}
	return preference.OptionA, nil
}

func finishSession(ctx context.Context, state *session.State, store session.Store, zlog *zap.Logger) {
	if state.Phase == session.PhaseVignettes {
		if err := state.TransitionTo(session.PhaseWrapup); err != nil {
			zlog.Warn("wrapping up", zap.Error(err))
		} else if err := state.TransitionTo(session.PhaseComplete); err != nil {
			zlog.Warn("completing", zap.Error(err))
		}
	}
	if err := store.Save(ctx, state); err != nil {
		zlog.Warn("persisting the final session state", zap.Error(err))
	}
}

func printReport(state *session.State, tuner *adaptive.DifficultyTuner) {
	mean := state.Posterior.Mean()
	dims := state.Posterior.Dimensions()

	type entry struct {
		dim      string
		weight   float64
		variance float64
	}
	entries := make([]entry, len(dims))
	for i, dim := range dims {
		entries[i] = entry{dim: dim, weight: mean[i], variance: state.Posterior.Variance(dim)}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].weight > entries[j].weight })

	fmt.Println()
	fmt.Printf("Preference profile for session %s (%d vignettes):\n", state.SessionID, state.VignettesShown())
	for _, e := range entries {
		fmt.Printf("  %-20s weight %+.3f  (variance %.3f)\n", e.dim, e.weight, e.variance)
	}
	fmt.Println(tuner.Recommend(state.Posterior).Summary)
}
