package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kinship-cli/internal/model"
)

// Default matching thresholds.
const (
	DefaultExactThreshold = 1.0
	DefaultFuzzyThreshold = 0.70
)

// Entry is one member of a population to match. Birth and Death are
// carried through to match entries for display only.
type Entry struct {
	Name  string
	Birth string
	Death string
}

// Names builds entries from bare names.
func Names(names []string) []Entry {
	out := make([]Entry, len(names))
	for i, n := range names {
		out[i] = Entry{Name: n}
	}
	return out
}

// Options configures a Matcher.
type Options struct {
	// ExactThreshold must be 1.0: exactness is equality of normalized keys.
	ExactThreshold float64
	// FuzzyThreshold is the minimum similarity ratio for a fuzzy match.
	FuzzyThreshold float64
	Strategy       string
	Workers        int
}

// DefaultOptions returns the standard greedy configuration.
func DefaultOptions() Options {
	return Options{
		ExactThreshold: DefaultExactThreshold,
		FuzzyThreshold: DefaultFuzzyThreshold,
		Strategy:       StrategyGreedy,
		Workers:        1,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.ExactThreshold != DefaultExactThreshold {
		return eris.Errorf("resolve: exact threshold must be %.1f, got %v", DefaultExactThreshold, o.ExactThreshold)
	}
	if o.FuzzyThreshold < 0 || o.FuzzyThreshold > 1 {
		return eris.Errorf("resolve: fuzzy threshold %v outside [0,1]", o.FuzzyThreshold)
	}
	if o.Workers < 0 {
		return eris.Errorf("resolve: workers must not be negative, got %d", o.Workers)
	}
	return nil
}

// Matcher computes exact and fuzzy correspondences between two populations.
type Matcher struct {
	opts     Options
	assigner Assigner
}

// NewMatcher creates a Matcher using the assigner named by opts.Strategy.
func NewMatcher(opts Options) (*Matcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	a, err := NewAssigner(opts.Strategy, opts.Workers)
	if err != nil {
		return nil, err
	}
	return &Matcher{opts: opts, assigner: a}, nil
}

// NewMatcherWithAssigner creates a Matcher with a caller-supplied assigner.
func NewMatcherWithAssigner(opts Options, a Assigner) (*Matcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, eris.New("resolve: assigner is required")
	}
	return &Matcher{opts: opts, assigner: a}, nil
}

// Options returns the matcher configuration.
func (m *Matcher) Options() Options {
	return m.opts
}

// keyGroup holds every original entry that normalized to one key.
// The last entry is the representative used for matching.
type keyGroup struct {
	entries []Entry
}

func (g *keyGroup) rep() Entry {
	return g.entries[len(g.entries)-1]
}

// group normalizes a population and returns its groups with sorted keys.
// Names that normalize to "" cannot be compared and are returned apart,
// in input order.
func group(entries []Entry) (map[string]*keyGroup, []string, []string) {
	groups := make(map[string]*keyGroup, len(entries))
	var keys, unkeyed []string
	for _, e := range entries {
		k := NormalizeName(e.Name)
		if k == "" {
			if strings.TrimSpace(e.Name) != "" {
				unkeyed = append(unkeyed, e.Name)
			}
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &keyGroup{}
			groups[k] = g
			keys = append(keys, k)
		}
		g.entries = append(g.entries, e)
	}
	sort.Strings(keys)
	return groups, keys, unkeyed
}

func ambiguities(groups map[string]*keyGroup, keys []string) []model.Ambiguity {
	var out []model.Ambiguity
	for _, k := range keys {
		g := groups[k]
		distinct := make([]string, 0, len(g.entries))
		seen := make(map[string]bool, len(g.entries))
		for _, e := range g.entries {
			if !seen[e.Name] {
				seen[e.Name] = true
				distinct = append(distinct, e.Name)
			}
		}
		if len(distinct) < 2 {
			continue
		}
		out = append(out, model.Ambiguity{Key: k, Kept: g.rep().Name, Names: distinct})
	}
	return out
}

// Match runs the exact pass then the fuzzy pass. Population A is the
// GEDCOM side and supplies birth/death on match entries.
func (m *Matcher) Match(ctx context.Context, a, b []Entry) (*model.MatchResult, error) {
	log := zap.L().With(zap.String("component", "matcher"))

	groupsA, keysA, unkeyedA := group(a)
	groupsB, keysB, unkeyedB := group(b)

	res := &model.MatchResult{
		Exact:      []model.MatchEntry{},
		Fuzzy:      []model.MatchEntry{},
		OnlyA:      []string{},
		OnlyB:      []string{},
		UnkeyedA:   unkeyedA,
		UnkeyedB:   unkeyedB,
		AmbiguousA: ambiguities(groupsA, keysA),
		AmbiguousB: ambiguities(groupsB, keysB),
		SizeA:      len(keysA),
		SizeB:      len(keysB),
	}

	var restA, restB []string
	for _, k := range keysA {
		gb, ok := groupsB[k]
		if !ok {
			restA = append(restA, k)
			continue
		}
		ra := groupsA[k].rep()
		res.Exact = append(res.Exact, model.MatchEntry{
			SourceAName: ra.Name,
			SourceBName: gb.rep().Name,
			Key:         k,
			Kind:        model.MatchExact,
			Score:       1.0,
			Birth:       ra.Birth,
			Death:       ra.Death,
		})
	}
	for _, k := range keysB {
		if _, ok := groupsA[k]; !ok {
			restB = append(restB, k)
		}
	}
	log.Debug("exact pass complete",
		zap.Int("exact", len(res.Exact)),
		zap.Int("remaining_a", len(restA)),
		zap.Int("remaining_b", len(restB)),
	)

	pairs, err := m.assigner.Assign(ctx, restA, restB, m.opts.FuzzyThreshold)
	if err != nil {
		return nil, eris.Wrap(err, "resolve: fuzzy pass")
	}

	matchedA := make(map[string]bool, len(pairs))
	matchedB := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		matchedA[p.A], matchedB[p.B] = true, true
		ra := groupsA[p.A].rep()
		res.Fuzzy = append(res.Fuzzy, model.MatchEntry{
			SourceAName: ra.Name,
			SourceBName: groupsB[p.B].rep().Name,
			Key:         p.A,
			Kind:        model.MatchFuzzy,
			Score:       p.Score,
			Birth:       ra.Birth,
			Death:       ra.Death,
		})
	}

	for _, k := range restA {
		if !matchedA[k] {
			res.OnlyA = append(res.OnlyA, groupsA[k].rep().Name)
		}
	}
	for _, k := range restB {
		if !matchedB[k] {
			res.OnlyB = append(res.OnlyB, groupsB[k].rep().Name)
		}
	}

	log.Debug("fuzzy pass complete",
		zap.Int("fuzzy", len(res.Fuzzy)),
		zap.Int("only_a", len(res.OnlyA)),
		zap.Int("only_b", len(res.OnlyB)),
	)
	return res, nil
}
