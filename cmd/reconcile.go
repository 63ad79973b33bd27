package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kinship-cli/internal/config"
	"github.com/sells-group/kinship-cli/internal/export"
	"github.com/sells-group/kinship-cli/internal/extraction"
	"github.com/sells-group/kinship-cli/internal/model"
	"github.com/sells-group/kinship-cli/internal/pipeline"
	"github.com/sells-group/kinship-cli/internal/resolve"
	"github.com/sells-group/kinship-cli/internal/store"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a GEDCOM file against an extraction dump",
	Long:  "Decodes both sources, matches their people by normalized name and writes the reconciliation report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := applyReconcileFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}

		matcher, err := resolve.NewMatcher(matchOptions(cfg.Match))
		if err != nil {
			return eris.Wrap(err, "reconcile: matcher")
		}
		policy, err := extraction.PolicyByName(cfg.Sources.RelationPolicy)
		if err != nil {
			return eris.Wrap(err, "reconcile: relation policy")
		}

		var st store.Store
		if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close() //nolint:errcheck
			}
		}

		rep, err := pipeline.New(matcher, policy, st).Run(ctx, pipeline.Sources{
			GEDCOMPath:     cfg.Sources.GEDCOMPath,
			ExtractionPath: cfg.Sources.ExtractionPath,
		})
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		if err := export.Write(cfg.Export.Path, cfg.Export.Format, rep); err != nil {
			return eris.Wrap(err, "reconcile: export")
		}
		zap.L().Info("report written",
			zap.String("path", cfg.Export.Path),
			zap.String("run_id", rep.RunID),
		)

		formatSummary(os.Stdout, rep)
		return nil
	},
}

// applyReconcileFlags copies explicitly set flags over the loaded config.
func applyReconcileFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && flags.Changed(name) {
			apply()
		}
	}

	set("gedcom", func() { c.Sources.GEDCOMPath, err = flags.GetString("gedcom") })
	set("extraction", func() { c.Sources.ExtractionPath, err = flags.GetString("extraction") })
	set("policy", func() { c.Sources.RelationPolicy, err = flags.GetString("policy") })
	set("out", func() { c.Export.Path, err = flags.GetString("out") })
	set("format", func() { c.Export.Format, err = flags.GetString("format") })
	set("threshold", func() { c.Match.FuzzyThreshold, err = flags.GetFloat64("threshold") })
	set("strategy", func() { c.Match.Strategy, err = flags.GetString("strategy") })
	set("workers", func() { c.Match.Workers, err = flags.GetInt("workers") })

	return eris.Wrap(err, "reconcile: read flags")
}

func matchOptions(m config.MatchConfig) resolve.Options {
	return resolve.Options{
		ExactThreshold: m.ExactThreshold,
		FuzzyThreshold: m.FuzzyThreshold,
		Strategy:       m.Strategy,
		Workers:        m.Workers,
	}
}

// formatSummary writes the report's headline counts to w.
func formatSummary(out io.Writer, rep *model.Report) {
	s := rep.Summary
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if rep.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", rep.RunID)
	}
	_, _ = fmt.Fprintf(w, "GEDCOM people:\t%d (%d keys)\n", s.SourceARecords, s.SourceAKeys)
	_, _ = fmt.Fprintf(w, "Extraction names:\t%d (%d keys)\n", s.SourceBNames, s.SourceBKeys)
	_, _ = fmt.Fprintf(w, "Exact matches:\t%d\n", s.ExactMatches)
	_, _ = fmt.Fprintf(w, "Fuzzy matches:\t%d\n", s.FuzzyMatches)
	_, _ = fmt.Fprintf(w, "Only in GEDCOM:\t%d\n", s.OnlyInA)
	_, _ = fmt.Fprintf(w, "Only in extraction:\t%d\n", s.OnlyInB)
	if s.AmbiguousKeys > 0 {
		_, _ = fmt.Fprintf(w, "Ambiguous keys:\t%d\n", s.AmbiguousKeys)
	}
	_, _ = fmt.Fprintf(w, "Match rate:\t%.2f%%\n", s.MatchPercent)
	_, _ = fmt.Fprintf(w, "Coverage:\t%.2f%%\n", s.CoveragePercent)
	_ = w.Flush()
}

// addReconcileFlags registers the reconcile flags on cmd.
func addReconcileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("gedcom", "", "GEDCOM file (source A)")
	f.String("extraction", "", "extraction JSON dump (source B)")
	f.String("out", "", "report output path (default from config)")
	f.String("format", "", "report format: json, yaml or xlsx (default from file extension)")
	f.Float64("threshold", resolve.DefaultFuzzyThreshold, "minimum similarity ratio for fuzzy matches")
	f.String("strategy", resolve.StrategyGreedy, "fuzzy assignment strategy: greedy or best_first")
	f.Int("workers", 1, "goroutines used to score fuzzy candidates")
	f.String("policy", extraction.PolicyOwnerIsParent, "relation policy: owner_is_parent, owner_is_child or untyped")
	f.Bool("no-store", false, "do not record the run in the store")
}

func init() {
	addReconcileFlags(reconcileCmd)
	rootCmd.AddCommand(reconcileCmd)
}
