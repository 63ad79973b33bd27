// Package pipeline runs a full reconciliation: decode both sources, derive
// their populations, match them and build the report.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/kinship-cli/internal/extraction"
	"github.com/sells-group/kinship-cli/internal/gedcom"
	"github.com/sells-group/kinship-cli/internal/model"
	"github.com/sells-group/kinship-cli/internal/report"
	"github.com/sells-group/kinship-cli/internal/resolve"
	"github.com/sells-group/kinship-cli/internal/store"
)

// Sources names the two input files.
type Sources struct {
	GEDCOMPath     string
	ExtractionPath string
}

// Reconciler orchestrates a reconciliation run.
type Reconciler struct {
	matcher *resolve.Matcher
	policy  extraction.RelationPolicy
	store   store.Store
	now     func() time.Time
}

// New creates a Reconciler. st may be nil to skip run persistence, and a nil
// policy selects extraction.OwnerIsParent.
func New(matcher *resolve.Matcher, policy extraction.RelationPolicy, st store.Store) *Reconciler {
	if policy == nil {
		policy = extraction.OwnerIsParent
	}
	return &Reconciler{
		matcher: matcher,
		policy:  policy,
		store:   st,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes the reconciliation. With a store attached the run is
// recorded as running and then marked complete or failed.
func (r *Reconciler) Run(ctx context.Context, src Sources) (*model.Report, error) {
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("gedcom", src.GEDCOMPath),
		zap.String("extraction", src.ExtractionPath),
	)
	log.Info("pipeline: starting reconciliation")

	if src.GEDCOMPath == "" || src.ExtractionPath == "" {
		return nil, eris.New("pipeline: both gedcom and extraction paths are required")
	}

	opts := r.matcher.Options()
	params := model.Parameters{
		ExactThreshold: opts.ExactThreshold,
		FuzzyThreshold: opts.FuzzyThreshold,
		Strategy:       opts.Strategy,
	}

	var runID string
	if r.store != nil {
		run, err := r.store.CreateRun(ctx, model.RunInput{
			GEDCOMPath:     src.GEDCOMPath,
			ExtractionPath: src.ExtractionPath,
			Parameters:     params,
		})
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
		log = log.With(zap.String("run_id", runID))
	}

	rep, err := r.run(ctx, log, src, params)
	if err != nil {
		if r.store != nil {
			if failErr := r.store.FailRun(context.WithoutCancel(ctx), runID, err.Error()); failErr != nil {
				log.Warn("pipeline: failed to mark run failed", zap.Error(failErr))
			}
		}
		log.Error("pipeline: reconciliation failed", zap.Error(err))
		return nil, err
	}
	rep.RunID = runID

	if r.store != nil {
		if err := r.store.CompleteRun(ctx, runID, rep); err != nil {
			return nil, eris.Wrap(err, "pipeline: complete run")
		}
	}

	log.Info("pipeline: reconciliation complete",
		zap.Int("exact", rep.Summary.ExactMatches),
		zap.Int("fuzzy", rep.Summary.FuzzyMatches),
		zap.Int("only_a", rep.Summary.OnlyInA),
		zap.Int("only_b", rep.Summary.OnlyInB),
		zap.Float64("coverage_percent", rep.Summary.CoveragePercent),
	)
	return rep, nil
}

func (r *Reconciler) run(ctx context.Context, log *zap.Logger, src Sources, params model.Parameters) (*model.Report, error) {
	phase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		duration := time.Since(start).Milliseconds()
		if err != nil {
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(err),
			)
			return err
		}
		log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
		)
		return nil
	}

	// Load both sources in parallel.
	var (
		people  []model.PersonRecord
		sources model.SourceInfo
		ds      *extraction.Dataset
	)
	var g errgroup.Group
	g.Go(func() error {
		return phase("load_gedcom", func() error {
			doc, err := gedcom.DecodeFile(src.GEDCOMPath)
			if err != nil {
				return err
			}
			people = gedcom.Sorted(gedcom.BuildPeople(doc))
			sources = model.SourceInfo{GEDCOMCharset: doc.Charset, CharsetLossy: doc.Lossy}
			return nil
		})
	})
	g.Go(func() error {
		return phase("load_extraction", func() error {
			var err error
			ds, err = extraction.LoadFile(src.ExtractionPath)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: load sources")
	}

	var graph *extraction.Graph
	_ = phase("derive", func() error {
		graph = extraction.Derive(ds, r.policy)
		return nil
	})

	entriesA := make([]resolve.Entry, len(people))
	for i, p := range people {
		entriesA[i] = resolve.Entry{Name: p.Name, Birth: p.Birth, Death: p.Death}
	}

	var res *model.MatchResult
	if err := phase("match", func() error {
		var err error
		res, err = r.matcher.Match(ctx, entriesA, resolve.Names(graph.Names))
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: match")
	}

	return report.Build(report.Input{
		Result:         res,
		Parameters:     params,
		PeopleA:        people,
		GraphB:         graph,
		SourceBRecords: len(ds.People),
		Sources:        sources,
		GeneratedAt:    r.now(),
	}), nil
}
