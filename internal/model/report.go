package model

import "time"

// Summary holds the scalar counts of a reconciliation report.
type Summary struct {
	SourceARecords  int     `json:"source_a_records" yaml:"source_a_records"`
	SourceAKeys     int     `json:"source_a_keys" yaml:"source_a_keys"`
	SourceBRecords  int     `json:"source_b_records" yaml:"source_b_records"`
	SourceBNames    int     `json:"source_b_names" yaml:"source_b_names"`
	SourceBKeys     int     `json:"source_b_keys" yaml:"source_b_keys"`
	ExactMatches    int     `json:"exact_matches" yaml:"exact_matches"`
	FuzzyMatches    int     `json:"fuzzy_matches" yaml:"fuzzy_matches"`
	OnlyInA         int     `json:"only_in_a" yaml:"only_in_a"`
	OnlyInB         int     `json:"only_in_b" yaml:"only_in_b"`
	UnkeyedA        int     `json:"unkeyed_a" yaml:"unkeyed_a"`
	UnkeyedB        int     `json:"unkeyed_b" yaml:"unkeyed_b"`
	AmbiguousKeys   int     `json:"ambiguous_keys" yaml:"ambiguous_keys"`
	MatchPercent    float64 `json:"match_percent" yaml:"match_percent"`
	CoveragePercent float64 `json:"coverage_percent" yaml:"coverage_percent"`
}

// Unmatched is a name present in only one source, with review context.
type Unmatched struct {
	Name    string `json:"name" yaml:"name"`
	Context string `json:"context" yaml:"context"`
	Birth   string `json:"birth,omitempty" yaml:"birth,omitempty"`
	Death   string `json:"death,omitempty" yaml:"death,omitempty"`
}

// Parameters records the matching parameters a report was produced with.
type Parameters struct {
	ExactThreshold float64 `json:"exact_threshold" yaml:"exact_threshold"`
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	Strategy       string  `json:"strategy" yaml:"strategy"`
}

// SourceInfo describes how the inputs were decoded. CharsetLossy is set
// when the GEDCOM charset had no exact decoder and names may be garbled.
type SourceInfo struct {
	GEDCOMCharset string `json:"gedcom_charset" yaml:"gedcom_charset"`
	CharsetLossy  bool   `json:"charset_lossy,omitempty" yaml:"charset_lossy,omitempty"`
}

// Report is the final reconciliation output. Every normalized name of a side
// appears in exactly one of the match lists or its only-in list; names with
// an empty normalized form are listed under Unkeyed.
type Report struct {
	RunID        string              `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at" yaml:"generated_at"`
	Parameters   Parameters          `json:"parameters" yaml:"parameters"`
	Sources      SourceInfo          `json:"sources" yaml:"sources"`
	Summary      Summary             `json:"summary" yaml:"summary"`
	ExactMatches []MatchEntry        `json:"exact_matches" yaml:"exact_matches"`
	FuzzyMatches []MatchEntry        `json:"fuzzy_matches" yaml:"fuzzy_matches"`
	OnlyInA      []Unmatched         `json:"only_in_a" yaml:"only_in_a"`
	OnlyInB      []Unmatched         `json:"only_in_b" yaml:"only_in_b"`
	UnkeyedA     []Unmatched         `json:"unkeyed_a,omitempty" yaml:"unkeyed_a,omitempty"`
	UnkeyedB     []Unmatched         `json:"unkeyed_b,omitempty" yaml:"unkeyed_b,omitempty"`
	AmbiguousA   []Ambiguity         `json:"ambiguous_a,omitempty" yaml:"ambiguous_a,omitempty"`
	AmbiguousB   []Ambiguity         `json:"ambiguous_b,omitempty" yaml:"ambiguous_b,omitempty"`
	PIDNames     map[string][]string `json:"pid_name_mapping,omitempty" yaml:"pid_name_mapping,omitempty"`
}
