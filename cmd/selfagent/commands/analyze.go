package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/llm"
	"github.com/Fyuan0206/SelfAgent/pkg/service"
	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

// NewAnalyzeCmd creates the analyze command: one full pipeline pass over a
// single turn, printed as JSON.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the decision pipeline for one turn",
		Long: `Analyze a single conversation turn: route it through the L1/L2/L3
cascade, assess risk, and print the resulting decision as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			user, _ := cmd.Flags().GetString("user")
			text, _ := cmd.Flags().GetString("text")
			emotionsJSON, _ := cmd.Flags().GetString("emotions")
			arousal, _ := cmd.Flags().GetFloat64("arousal")
			turnContext, _ := cmd.Flags().GetString("context")
			dbPath, _ := cmd.Flags().GetString("db")
			useLLM, _ := cmd.Flags().GetBool("llm")

			emotions := map[string]float64{}
			if emotionsJSON != "" {
				if err := json.Unmarshal([]byte(emotionsJSON), &emotions); err != nil {
					return fmt.Errorf("invalid --emotions JSON: %w", err)
				}
			}

			repo, cleanup, err := openRepository(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			var client llm.Client
			if useLLM {
				client = llm.NewOpenAIClient(cfg.LLM)
			}

			analyzer := service.NewAnalyzer(cfg, repo, client)
			decision, err := analyzer.AnalyzeTurn(cmd.Context(), user, service.TurnInput{
				Text:     text,
				Emotions: affect.EmotionVector{Emotions: emotions, Arousal: arousal},
				Context:  turnContext,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(decision, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().String("user", "default", "User ID for session tracking")
	cmd.Flags().String("text", "", "Turn text")
	cmd.Flags().String("emotions", "", `Emotion scores as JSON, e.g. '{"anxiety":0.7}'`)
	cmd.Flags().Float64("arousal", 0, "Arousal estimate in [0,1]")
	cmd.Flags().String("context", "", "Situational context, e.g. \"exam stress\"")
	cmd.Flags().String("db", "", "Path to the sqlite skill catalog (built-in seed when empty)")
	cmd.Flags().Bool("llm", false, "Enable the LLM stages")

	return cmd
}

// openRepository opens the sqlite catalog when a path is given, otherwise a
// seeded in-memory one. The cleanup func is always safe to call.
func openRepository(ctx context.Context, dbPath string) (skills.Repository, func(), error) {
	if dbPath == "" {
		store := skills.NewMemoryStore()
		if err := skills.Seed(ctx, store); err != nil {
			return nil, func() {}, err
		}
		return store, func() {}, nil
	}

	store, err := skills.OpenSQLite(dbPath)
	if err != nil {
		return nil, func() {}, err
	}
	return store, func() { store.Close() }, nil
}
