package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"narrative_framework/config"
	"narrative_framework/embedding"
	"narrative_framework/logging"
	"narrative_framework/metrics"
	"narrative_framework/narrative"
)

var (
	generateForm bool
	generateWrap bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [record-file|-]",
	Short: "Generate the narrative for one YAML/JSON record, or a URL-encoded form with --form",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, m, err := setup()
		if err != nil {
			return err
		}
		name := "-"
		if len(args) == 1 {
			name = args[0]
		}
		data, err := readInput(cmd, name)
		if err != nil {
			return err
		}

		var rec narrative.CallRecord
		if generateForm {
			form, perr := url.ParseQuery(strings.TrimSpace(string(data)))
			if perr != nil {
				return fmt.Errorf("parse form: %w", perr)
			}
			rec, err = narrative.FromForm(form)
		} else {
			rec, err = narrative.DecodeRecord(data, name)
		}
		if err != nil {
			m.RecordInvalidRecord()
			return err
		}

		opts := []narrative.Option{
			narrative.WithPhrases(cfg.Phrases.ToPhrases()),
			narrative.WithLogger(logger),
			narrative.WithMetrics(m),
		}
		hook := embeddingHook(cmd, cfg, logger, m)
		if hook != nil {
			opts = append(opts, narrative.WithObserver(hook))
		}
		text := narrative.NewAssembler(opts...).Generate(cmd.Context(), rec)
		hook.Wait()
		out := cmd.OutOrStdout()
		if generateWrap {
			for i, p := range strings.Split(text, "\n\n") {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, paragraphStyle.Render(p))
			}
		} else {
			fmt.Fprintln(out, text)
		}
		if cfg.MetricsTextfile != "" {
			if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
				logger.Warn("metrics textfile write failed", "error", err.Error())
			}
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateForm, "form", false, "input is a URL-encoded form submission")
	generateCmd.Flags().BoolVar(&generateWrap, "wrap", false, "wrap paragraphs for terminal display")
}

// embeddingHook loads the embedding model when enabled. A load failure is
// logged and leaves the hook inert.
func embeddingHook(cmd *cobra.Command, cfg config.Config, logger *logging.Logger, m *metrics.Metrics) *embedding.Hook {
	if !cfg.Embedding.Enabled {
		return nil
	}
	timeout := time.Duration(cfg.Embedding.TimeoutSec) * time.Second
	e := embedding.NewHTTPEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.APIKey, timeout)
	ready := embedding.NewReadiness()
	loader := embedding.NewLoader(e, ready, cfg.Embedding.LoadAttempts, time.Second, logger)
	if err := loader.Load(cmd.Context()); err != nil {
		logger.Warn("embedding model unavailable", "error", err.Error())
	}
	return embedding.NewHook(e, ready, timeout, logger, m)
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
