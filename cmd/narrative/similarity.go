package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"narrative_framework/embedding"
)

var similarityLimit int

var similarityCmd = &cobra.Command{
	Use:   "similarity <query-file> <candidate-file>...",
	Short: "Rank narrative files by embedding similarity to a query narrative",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, _, err := setup()
		if err != nil {
			return err
		}
		if cfg.Embedding.APIKey == "" {
			return fmt.Errorf("similarity needs EMBEDDING_API_KEY or OPENAI_API_KEY")
		}
		query, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		candidates := make([]embedding.Candidate, 0, len(args)-1)
		for _, path := range args[1:] {
			text, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			candidates = append(candidates, embedding.Candidate{Name: filepath.Base(path), Text: string(text)})
		}

		e := embedding.NewHTTPEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.APIKey,
			time.Duration(cfg.Embedding.TimeoutSec)*time.Second)
		ready := embedding.NewReadiness()
		loader := embedding.NewLoader(e, ready, cfg.Embedding.LoadAttempts, time.Second, logger)
		if err := loader.Load(cmd.Context()); err != nil {
			return err
		}

		matches, err := embedding.NewScorer(e, ready).Rank(cmd.Context(), string(query), candidates, similarityLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Similarity to "+filepath.Base(args[0])))
		for _, match := range matches {
			fmt.Fprintln(out, row(match.Name, fmt.Sprintf("%.4f", match.Score)))
		}
		return nil
	},
}

func init() {
	similarityCmd.Flags().IntVar(&similarityLimit, "limit", 0, "show only the best N matches")
}
