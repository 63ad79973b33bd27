package resolve

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Strategy names accepted by NewAssigner.
const (
	StrategyGreedy    = "greedy"
	StrategyBestFirst = "best_first"
)

// parallelMinPool is the candidate pool size below which scoring stays on
// the calling goroutine.
const parallelMinPool = 256

// Pair is one fuzzy assignment between a source-A key and a source-B key.
type Pair struct {
	A     string
	B     string
	Score float64
}

// Assigner decides fuzzy correspondences between the normalized keys left
// over after the exact pass. Both key slices arrive sorted.
type Assigner interface {
	Assign(ctx context.Context, a, b []string, threshold float64) ([]Pair, error)
}

// NewAssigner returns the assigner for a strategy name.
func NewAssigner(strategy string, workers int) (Assigner, error) {
	switch strategy {
	case "", StrategyGreedy:
		return &Greedy{Workers: workers}, nil
	case StrategyBestFirst:
		return &BestFirst{Workers: workers}, nil
	default:
		return nil, eris.Errorf("resolve: unknown strategy %q", strategy)
	}
}

// Greedy visits A keys in order and gives each the B candidate with the
// strictly highest ratio. An accepted candidate leaves the pool, so a later
// A key can never claim it even with a higher score. Ties go to the earliest
// candidate in pool order.
type Greedy struct {
	// Workers splits the scoring of one A key across goroutines.
	// Assignment itself is always sequential.
	Workers int
}

// Assign implements Assigner.
func (g *Greedy) Assign(ctx context.Context, a, b []string, threshold float64) ([]Pair, error) {
	pool := append([]string(nil), b...)
	var pairs []Pair

	for _, ka := range a {
		if len(pool) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "resolve: greedy assign")
		}

		idx, score, err := bestCandidate(ctx, ka, pool, g.Workers)
		if err != nil {
			return nil, err
		}
		if idx < 0 || score < threshold {
			continue
		}

		pairs = append(pairs, Pair{A: ka, B: pool[idx], Score: score})
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return pairs, nil
}

// bestCandidate returns the index and score of the highest-scoring entry of
// pool for key. It returns -1 for an empty pool.
func bestCandidate(ctx context.Context, key string, pool []string, workers int) (int, float64, error) {
	if workers <= 1 || len(pool) < parallelMinPool {
		idx, score := bestInRange(key, pool, 0, len(pool))
		return idx, score, nil
	}

	type local struct {
		idx   int
		score float64
	}

	chunk := (len(pool) + workers - 1) / workers
	results := make([]local, 0, workers)
	for lo := 0; lo < len(pool); lo += chunk {
		results = append(results, local{idx: -1})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for w := range results {
		lo := w * chunk
		hi := min(lo+chunk, len(pool))
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return eris.Wrap(err, "resolve: score candidates")
			}
			idx, score := bestInRange(key, pool, lo, hi)
			results[w] = local{idx: idx, score: score}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return -1, 0, err
	}

	// Chunks are reduced in pool order so ties still go to the earliest index.
	best := local{idx: -1, score: -1}
	for _, r := range results {
		if r.idx >= 0 && r.score > best.score {
			best = r
		}
	}
	return best.idx, best.score, nil
}

func bestInRange(key string, pool []string, lo, hi int) (int, float64) {
	bestIdx, bestScore := -1, -1.0
	for i := lo; i < hi; i++ {
		if s := Similarity(key, pool[i]); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	return bestIdx, bestScore
}

// BestFirst scores every pair above the threshold and accepts them in
// descending score order (ties by A key, then B key) while both sides are
// still free. Unlike Greedy the result does not depend on visiting order.
type BestFirst struct {
	// Workers scores A rows in parallel.
	Workers int
}

// Assign implements Assigner.
func (s *BestFirst) Assign(ctx context.Context, a, b []string, threshold float64) ([]Pair, error) {
	rows := make([][]Pair, len(a))

	eg, egCtx := errgroup.WithContext(ctx)
	if s.Workers > 0 {
		eg.SetLimit(s.Workers)
	} else {
		eg.SetLimit(1)
	}
	for i, ka := range a {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return eris.Wrap(err, "resolve: best-first score")
			}
			for _, kb := range b {
				if score := Similarity(ka, kb); score >= threshold {
					rows[i] = append(rows[i], Pair{A: ka, B: kb, Score: score})
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []Pair
	for _, r := range rows {
		all = append(all, r...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		if all[i].A != all[j].A {
			return all[i].A < all[j].A
		}
		return all[i].B < all[j].B
	})

	usedA := make(map[string]bool, len(a))
	usedB := make(map[string]bool, len(b))
	var pairs []Pair
	for _, p := range all {
		if usedA[p.A] || usedB[p.B] {
			continue
		}
		usedA[p.A], usedB[p.B] = true, true
		pairs = append(pairs, p)
	}
	return pairs, nil
}
