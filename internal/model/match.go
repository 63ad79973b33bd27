package model

// MatchKind classifies a cross-source correspondence.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// MatchEntry pairs a source-A name with a source-B name.
// Score is 1.0 for exact matches and the similarity ratio for fuzzy ones.
type MatchEntry struct {
	SourceAName string    `json:"source_a_name" yaml:"source_a_name"`
	SourceBName string    `json:"source_b_name" yaml:"source_b_name"`
	Key         string    `json:"key" yaml:"key"`
	Kind        MatchKind `json:"kind" yaml:"kind"`
	Score       float64   `json:"score" yaml:"score"`
	Birth       string    `json:"birth,omitempty" yaml:"birth,omitempty"`
	Death       string    `json:"death,omitempty" yaml:"death,omitempty"`
}

// Ambiguity records a normalized key that more than one original name
// collapsed onto on one side. Kept is the name that took part in matching.
type Ambiguity struct {
	Key   string   `json:"key" yaml:"key"`
	Kept  string   `json:"kept" yaml:"kept"`
	Names []string `json:"names" yaml:"names"`
}

// MatchResult is the raw output of the identity matcher. UnkeyedA and
// UnkeyedB hold names whose normalized key is empty; they take no part in
// matching and are not counted in SizeA/SizeB.
type MatchResult struct {
	Exact      []MatchEntry `json:"exact"`
	Fuzzy      []MatchEntry `json:"fuzzy"`
	OnlyA      []string     `json:"only_a"`
	OnlyB      []string     `json:"only_b"`
	UnkeyedA   []string     `json:"unkeyed_a,omitempty"`
	UnkeyedB   []string     `json:"unkeyed_b,omitempty"`
	AmbiguousA []Ambiguity  `json:"ambiguous_a,omitempty"`
	AmbiguousB []Ambiguity  `json:"ambiguous_b,omitempty"`
	SizeA      int          `json:"size_a"`
	SizeB      int          `json:"size_b"`
}
